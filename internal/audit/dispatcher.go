package audit

import (
	"context"
	"log"
	"sync"
	"time"
)

type Event struct {
	TenantID   uint
	UserID     *uint
	Action     string
	Entity     string
	EntityID   string
	Metadata   any
	OccurredAt time.Time
}

// Writer persists an event. Logger is the database-backed one.
type Writer interface {
	Write(ctx context.Context, ev Event) error
}

// Sink receives a copy of every event after it was written.
type Sink interface {
	Publish(ctx context.Context, ev Event) error
}

type Dispatcher struct {
	writer Writer
	sinks  []Sink
	queue  chan Event
	done   chan struct{}
	once   sync.Once
}

func NewDispatcher(writer Writer, sinks ...Sink) *Dispatcher {
	d := &Dispatcher{
		writer: writer,
		sinks:  sinks,
		queue:  make(chan Event, 100),
		done:   make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		if d.writer != nil {
			if err := d.writer.Write(ctx, ev); err != nil {
				log.Println("audit error:", err)
			}
		}

		for _, s := range d.sinks {
			if err := s.Publish(ctx, ev); err != nil {
				log.Printf("audit sink error (%s): %v", ev.Action, err)
			}
		}

		cancel()
	}
}

// Dispatch queues ev without blocking. A full queue drops the event; the
// request that produced it must never fail because of auditing.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	select {
	case d.queue <- ev:
	default:
		log.Println("audit queue full, dropping event")
	}
}

// Close stops accepting events and waits for the queue to drain.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() { close(d.queue) })
	<-d.done
}
