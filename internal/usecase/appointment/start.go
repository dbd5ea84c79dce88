package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type StartAppointment struct {
	t transition
}

func NewStartAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *StartAppointment {
	return &StartAppointment{
		t: newTransition(repo, audit, "appointment_started", domain.Start),
	}
}

func (uc *StartAppointment) WithMetrics(m *metrics.Metrics) *StartAppointment {
	uc.t.metrics = m
	return uc
}

func (uc *StartAppointment) WithClock(now func() time.Time) *StartAppointment {
	uc.t.now = now
	return uc
}

func (uc *StartAppointment) Execute(
	ctx context.Context,
	actor Actor,
	appointmentID uint,
) (*models.Appointment, error) {
	return uc.t.execute(ctx, actor, appointmentID)
}
