package payment

import (
	"context"
	"fmt"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/preference"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// Checkout creates Mercado Pago payment links for appointments.
type Checkout struct {
	client          preference.Client
	notificationURL string
}

func NewCheckout(accessToken, notificationURL string) (*Checkout, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, err
	}

	return &Checkout{
		client:          preference.NewClient(cfg),
		notificationURL: notificationURL,
	}, nil
}

// ExternalReference ties a payment back to its appointment.
func ExternalReference(ap *models.Appointment) string {
	return fmt.Sprintf("appointment:%d", ap.ID)
}

// BuildRequest renders the preference for one appointment.
func BuildRequest(ap *models.Appointment, notificationURL string) preference.Request {
	return preference.Request{
		Items: []preference.ItemRequest{
			{
				ID:          fmt.Sprintf("service-%d", ap.ServiceID),
				Title:       ap.Service.Name,
				Description: ap.Service.Description,
				Quantity:    1,
				UnitPrice:   ap.Service.Price,
				CurrencyID:  "BRL",
			},
		},
		ExternalReference: ExternalReference(ap),
		NotificationURL:   notificationURL,
	}
}

// CreateLink returns the checkout URL for the appointment.
func (c *Checkout) CreateLink(ctx context.Context, ap *models.Appointment) (string, error) {
	res, err := c.client.Create(ctx, BuildRequest(ap, c.notificationURL))
	if err != nil {
		return "", fmt.Errorf("mercadopago preference: %w", err)
	}
	return res.InitPoint, nil
}
