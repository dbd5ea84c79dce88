package lock

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type ReleaseLock struct {
	repo    domain.Repository
	audit   *audit.Dispatcher
	cache   domain.AvailabilityCache
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewReleaseLock(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *ReleaseLock {
	return &ReleaseLock{
		repo:  repo,
		audit: audit,
		now:   time.Now,
	}
}

func (uc *ReleaseLock) WithCache(c domain.AvailabilityCache) *ReleaseLock {
	uc.cache = c
	return uc
}

func (uc *ReleaseLock) WithMetrics(m *metrics.Metrics) *ReleaseLock {
	uc.metrics = m
	return uc
}

func (uc *ReleaseLock) WithClock(now func() time.Time) *ReleaseLock {
	uc.now = now
	return uc
}

// Execute deactivates the lock. Releasing a lock that is already
// inactive (released, expired or consumed) succeeds without changes.
func (uc *ReleaseLock) Execute(
	ctx context.Context,
	tenantID uint,
	branchID uint,
	lockID string,
) error {

	found, err := uc.repo.GetLock(ctx, tenantID, branchID, lockID)
	if err != nil {
		return domain.NotFound(err, "lock_not_found")
	}

	var (
		lock     *models.AppointmentLock
		released bool
	)

	// Re-read under the barber lock so a concurrent commit that consumes
	// this lock is never overwritten.
	err = uc.repo.WithBarberLock(ctx, found.BarberID, func(tx domain.Repository) error {
		current, err := tx.GetLock(ctx, tenantID, branchID, lockID)
		if err != nil {
			return domain.NotFound(err, "lock_not_found")
		}

		lock = current
		if !domain.Release(lock, uc.now()) {
			return nil
		}
		released = true
		return tx.UpdateLock(ctx, lock)
	})
	if err != nil {
		return err
	}
	if !released {
		return nil
	}

	uc.metrics.LockReleased()
	if tenant, err := uc.repo.GetTenant(ctx, tenantID); err == nil {
		if branch, err := uc.repo.GetBranch(ctx, tenantID, branchID); err == nil {
			invalidate(ctx, uc.cache, lock, &domain.Scope{Tenant: tenant, Branch: branch})
		}
	}

	uc.audit.Dispatch(audit.Event{
		TenantID: tenantID,
		Action:   "lock_released",
		Entity:   "lock",
		EntityID: lock.ID,
	})

	return nil
}
