package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type CompleteAppointment struct {
	t transition
}

func NewCompleteAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *CompleteAppointment {
	return &CompleteAppointment{
		t: newTransition(repo, audit, "appointment_completed", domain.Complete),
	}
}

func (uc *CompleteAppointment) WithMetrics(m *metrics.Metrics) *CompleteAppointment {
	uc.t.metrics = m
	return uc
}

func (uc *CompleteAppointment) WithClock(now func() time.Time) *CompleteAppointment {
	uc.t.now = now
	return uc
}

func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	actor Actor,
	appointmentID uint,
) (*models.Appointment, error) {
	return uc.t.execute(ctx, actor, appointmentID)
}
