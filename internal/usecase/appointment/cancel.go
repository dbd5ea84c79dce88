package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// CancelAppointment frees the appointment's interval. It is never deleted.
type CancelAppointment struct {
	t transition
}

func NewCancelAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *CancelAppointment {
	return &CancelAppointment{
		t: newTransition(repo, audit, "appointment_cancelled", domain.Cancel),
	}
}

func (uc *CancelAppointment) WithCache(c domain.AvailabilityCache) *CancelAppointment {
	uc.t.cache = c
	return uc
}

func (uc *CancelAppointment) WithMetrics(m *metrics.Metrics) *CancelAppointment {
	uc.t.metrics = m
	return uc
}

func (uc *CancelAppointment) WithClock(now func() time.Time) *CancelAppointment {
	uc.t.now = now
	return uc
}

func (uc *CancelAppointment) Execute(
	ctx context.Context,
	actor Actor,
	appointmentID uint,
) (*models.Appointment, error) {
	return uc.t.execute(ctx, actor, appointmentID)
}
