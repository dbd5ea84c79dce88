package appointment

import (
	"context"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// Actor is the authenticated staff member acting on appointments.
type Actor struct {
	TenantID uint
	UserID   uint
	Role     string
}

// CanSeeAll reports whether the actor manages every barber's agenda.
func (a Actor) CanSeeAll() bool {
	return a.Role == models.RoleOwner || a.Role == models.RoleAdmin
}

// loadForActor fetches an appointment the actor may act on. Barbers only
// reach their own appointments.
func loadForActor(
	ctx context.Context,
	repo domain.Repository,
	actor Actor,
	appointmentID uint,
) (*models.Appointment, error) {

	ap, err := repo.GetAppointment(ctx, actor.TenantID, appointmentID)
	if err != nil {
		return nil, domain.NotFound(err, "appointment_not_found")
	}

	if !actor.CanSeeAll() && ap.BarberID != actor.UserID {
		return nil, domain.NotFound(domain.ErrNotFound, "appointment_not_found")
	}

	return ap, nil
}
