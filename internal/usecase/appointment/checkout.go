package appointment

import (
	"context"
	"strconv"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// CheckoutLinker creates a payment link for an appointment.
type CheckoutLinker interface {
	CreateLink(ctx context.Context, ap *models.Appointment) (string, error)
}

type CreateCheckout struct {
	repo   domain.Repository
	audit  *audit.Dispatcher
	linker CheckoutLinker
}

// NewCreateCheckout accepts a nil linker; the use case then reports
// payments as disabled.
func NewCreateCheckout(
	repo domain.Repository,
	audit *audit.Dispatcher,
	linker CheckoutLinker,
) *CreateCheckout {
	return &CreateCheckout{
		repo:   repo,
		audit:  audit,
		linker: linker,
	}
}

func (uc *CreateCheckout) Execute(
	ctx context.Context,
	actor Actor,
	appointmentID uint,
) (*models.Appointment, error) {

	if uc.linker == nil {
		return nil, httperr.ErrBusiness("payments_disabled")
	}

	ap, err := loadForActor(ctx, uc.repo, actor, appointmentID)
	if err != nil {
		return nil, err
	}

	if domain.Status(ap.Status) == domain.StatusCancelled {
		return nil, httperr.ErrBusiness("invalid_state")
	}

	if ap.PaymentURL != "" {
		return ap, nil
	}

	url, err := uc.linker.CreateLink(ctx, ap)
	if err != nil {
		return nil, err
	}

	ap.PaymentURL = url
	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	userID := actor.UserID
	uc.audit.Dispatch(audit.Event{
		TenantID: actor.TenantID,
		UserID:   &userID,
		Action:   "checkout_created",
		Entity:   "appointment",
		EntityID: strconv.FormatUint(uint64(ap.ID), 10),
	})

	return ap, nil
}
