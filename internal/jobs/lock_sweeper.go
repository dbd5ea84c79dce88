package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper is the part of the lock use cases the job needs.
type Sweeper interface {
	Execute(ctx context.Context) (int, error)
}

// StartLockSweeper schedules the expired-lock sweep and returns the running
// scheduler; callers stop it on shutdown.
func StartLockSweeper(spec string, sweeper Sweeper) (*cron.Cron, error) {
	c := cron.New()

	if _, err := c.AddFunc(spec, func() { RunSweep(sweeper) }); err != nil {
		return nil, err
	}

	c.Start()
	log.Printf("lock-sweeper: scheduled (%s)", spec)
	return c, nil
}

// RunSweep performs one sweep with its own timeout.
func RunSweep(sweeper Sweeper) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := sweeper.Execute(ctx)
	if err != nil {
		log.Printf("lock-sweeper: %v", err)
		return
	}
	if n > 0 {
		log.Printf("lock-sweeper: deactivated %d expired locks", n)
	}
}
