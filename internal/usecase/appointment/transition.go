package appointment

import (
	"context"
	"strconv"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// transition is the shared body of the staff status changes.
type transition struct {
	repo    domain.Repository
	audit   *audit.Dispatcher
	cache   domain.AvailabilityCache
	metrics *metrics.Metrics
	now     func() time.Time

	action string
	apply  func(*models.Appointment, time.Time) error
}

func (t *transition) execute(
	ctx context.Context,
	actor Actor,
	appointmentID uint,
) (*models.Appointment, error) {

	ap, err := loadForActor(ctx, t.repo, actor, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := t.apply(ap, t.now()); err != nil {
		return nil, err
	}

	if err := t.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	t.metrics.Appointment(ap.Status)

	// Only a cancellation changes what occupies the agenda.
	if t.cache != nil && !domain.Status(ap.Status).Occupies() {
		if loc, ok := t.location(ctx, ap); ok {
			t.cache.Invalidate(ctx, ap.BarberID, ap.StartTime.In(loc).Format(schedule.DateLayout))
		}
	}

	userID := actor.UserID
	t.audit.Dispatch(audit.Event{
		TenantID: actor.TenantID,
		UserID:   &userID,
		Action:   t.action,
		Entity:   "appointment",
		EntityID: strconv.FormatUint(uint64(ap.ID), 10),
	})

	return ap, nil
}

func (t *transition) location(ctx context.Context, ap *models.Appointment) (*time.Location, bool) {
	tenant, err := t.repo.GetTenant(ctx, ap.TenantID)
	if err != nil {
		return nil, false
	}
	branch, err := t.repo.GetBranch(ctx, ap.TenantID, ap.BranchID)
	if err != nil {
		return nil, false
	}
	return timezone.Location(branch.EffectiveTimezone(*tenant)), true
}

func newTransition(repo domain.Repository, d *audit.Dispatcher, action string, apply func(*models.Appointment, time.Time) error) transition {
	return transition{
		repo:   repo,
		audit:  d,
		now:    time.Now,
		action: action,
		apply:  apply,
	}
}
