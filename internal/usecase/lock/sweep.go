package lock

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// SweepExpiredLocks switches off locks past their expiry. Expired locks
// already stop occupying time on their own; the sweep keeps is_active
// truthful for readers that do not compare expires_at.
type SweepExpiredLocks struct {
	repo    domain.Repository
	audit   *audit.Dispatcher
	cache   domain.AvailabilityCache
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewSweepExpiredLocks(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *SweepExpiredLocks {
	return &SweepExpiredLocks{
		repo:  repo,
		audit: audit,
		now:   time.Now,
	}
}

func (uc *SweepExpiredLocks) WithCache(c domain.AvailabilityCache) *SweepExpiredLocks {
	uc.cache = c
	return uc
}

func (uc *SweepExpiredLocks) WithMetrics(m *metrics.Metrics) *SweepExpiredLocks {
	uc.metrics = m
	return uc
}

func (uc *SweepExpiredLocks) WithClock(now func() time.Time) *SweepExpiredLocks {
	uc.now = now
	return uc
}

func (uc *SweepExpiredLocks) Execute(ctx context.Context) (int, error) {
	expired, err := uc.repo.DeactivateExpiredLocks(ctx, uc.now())
	if err != nil {
		return 0, err
	}

	uc.metrics.LocksExpired(len(expired))

	scopes := map[uint]*domain.Scope{}
	for i := range expired {
		l := &expired[i]

		scope, ok := scopes[l.BranchID]
		if !ok {
			scope = uc.branchScope(ctx, l)
			scopes[l.BranchID] = scope
		}
		invalidate(ctx, uc.cache, l, scope)

		uc.audit.Dispatch(audit.Event{
			TenantID: l.TenantID,
			Action:   "lock_expired",
			Entity:   "lock",
			EntityID: l.ID,
		})
	}

	return len(expired), nil
}

func (uc *SweepExpiredLocks) branchScope(ctx context.Context, l *models.AppointmentLock) *domain.Scope {
	tenant, err := uc.repo.GetTenant(ctx, l.TenantID)
	if err != nil {
		return nil
	}
	branch, err := uc.repo.GetBranch(ctx, l.TenantID, l.BranchID)
	if err != nil {
		return nil
	}
	return &domain.Scope{Tenant: tenant, Branch: branch}
}

// ======================================================
// helpers
// ======================================================

func invalidate(ctx context.Context, c domain.AvailabilityCache, l *models.AppointmentLock, scope *domain.Scope) {
	if c == nil || scope == nil {
		return
	}
	date := l.StartTime.In(scope.Location()).Format(schedule.DateLayout)
	c.Invalidate(ctx, l.BarberID, date)
}
