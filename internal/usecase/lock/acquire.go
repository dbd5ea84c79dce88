package lock

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// ======================================================
// INPUT
// ======================================================

type AcquireLockInput struct {
	TenantID   uint
	BranchID   uint
	BarberID   uint
	CustomerID *uint

	Start time.Time
	End   time.Time
}

// ======================================================
// USE CASE
// ======================================================

type AcquireLock struct {
	repo    domain.Repository
	audit   *audit.Dispatcher
	ttl     time.Duration
	cache   domain.AvailabilityCache
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewAcquireLock(
	repo domain.Repository,
	audit *audit.Dispatcher,
	ttl time.Duration,
) *AcquireLock {
	return &AcquireLock{
		repo:  repo,
		audit: audit,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (uc *AcquireLock) WithCache(c domain.AvailabilityCache) *AcquireLock {
	uc.cache = c
	return uc
}

func (uc *AcquireLock) WithMetrics(m *metrics.Metrics) *AcquireLock {
	uc.metrics = m
	return uc
}

func (uc *AcquireLock) WithClock(now func() time.Time) *AcquireLock {
	uc.now = now
	return uc
}

// ======================================================
// EXECUTE
// ======================================================

// Execute reserves [Start, End) for the barber. The check and the insert
// happen under the barber's row lock, so two callers racing for
// overlapping intervals cannot both succeed.
func (uc *AcquireLock) Execute(
	ctx context.Context,
	in AcquireLockInput,
) (*models.AppointmentLock, error) {

	candidate, err := schedule.Between(in.Start, in.End)
	if err != nil {
		uc.metrics.LockAttempt(metrics.LockInvalid)
		return nil, domain.ScheduleError(err)
	}

	scope, err := domain.LoadScope(ctx, uc.repo, in.TenantID, in.BranchID, in.BarberID)
	if err != nil {
		return nil, err
	}

	if in.CustomerID != nil {
		if _, err := uc.repo.GetCustomer(ctx, in.TenantID, *in.CustomerID); err != nil {
			return nil, domain.NotFound(err, "customer_not_found")
		}
	}

	var lock *models.AppointmentLock

	err = uc.repo.WithBarberLock(ctx, in.BarberID, func(tx domain.Repository) error {
		now := uc.now()

		if err := domain.CheckAdvance(scope.Tenant, candidate, now); err != nil {
			return err
		}

		day, err := domain.LoadDay(ctx, tx, scope, candidate.Start, now)
		if err != nil {
			return err
		}

		if err := day.CheckSlot(candidate, "", now); err != nil {
			return err
		}

		lock = &models.AppointmentLock{
			TenantID:   in.TenantID,
			BranchID:   in.BranchID,
			BarberID:   in.BarberID,
			CustomerID: in.CustomerID,
			StartTime:  candidate.Start,
			EndTime:    candidate.End,
			ExpiresAt:  now.Add(uc.ttl),
			IsActive:   true,
		}

		return tx.CreateLock(ctx, lock)
	})
	if err != nil {
		uc.countFailure(err)
		return nil, err
	}

	uc.metrics.LockAttempt(metrics.LockAcquired)
	invalidate(ctx, uc.cache, lock, scope)

	uc.audit.Dispatch(audit.Event{
		TenantID: in.TenantID,
		Action:   "lock_acquired",
		Entity:   "lock",
		EntityID: lock.ID,
		Metadata: map[string]any{
			"barber_id":  lock.BarberID,
			"start_time": lock.StartTime,
			"end_time":   lock.EndTime,
			"expires_at": lock.ExpiresAt,
		},
	})

	return lock, nil
}

func (uc *AcquireLock) countFailure(err error) {
	var be httperr.BusinessError
	if !errors.As(err, &be) {
		return
	}
	if be.Code == schedule.ErrOverlap.Error() {
		uc.metrics.LockAttempt(metrics.LockConflict)
		return
	}
	uc.metrics.LockAttempt(metrics.LockInvalid)
}
