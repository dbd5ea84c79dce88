package reservation

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/BruksfildServices01/barber-booking/internal/dto"
)

// Identity says who is booking: a registered Member or a Guest.
type Identity interface {
	apply(req *dto.CommitRequest)
	lockCustomer() *uint
}

type Member struct {
	CustomerID uint `validate:"required"`
}

type Guest struct {
	Name  string `validate:"required,min=2,max=100"`
	Phone string `validate:"required,phone"`
	Email string `validate:"omitempty,email"`
}

func (m Member) apply(req *dto.CommitRequest) {
	id := m.CustomerID
	req.CustomerID = &id
	req.Customer = nil
}

func (m Member) lockCustomer() *uint {
	id := m.CustomerID
	return &id
}

func (g Guest) apply(req *dto.CommitRequest) {
	req.CustomerID = nil
	req.Customer = &dto.CustomerInput{Name: g.Name, Phone: g.Phone, Email: g.Email}
}

// Guests hold locks anonymously.
func (g Guest) lockCustomer() *uint {
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("phone", validPhone); err != nil {
		panic(err)
	}
	return v
}

// validPhone accepts 8 to 15 digits with the usual separators and an
// optional leading plus.
func validPhone(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	digits := 0
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	return digits >= 8 && digits <= 15
}

func normalize(id Identity) Identity {
	if g, ok := id.(Guest); ok {
		g.Name = strings.TrimSpace(g.Name)
		g.Phone = strings.TrimSpace(g.Phone)
		g.Email = strings.TrimSpace(g.Email)
		return g
	}
	return id
}

// ValidateIdentity checks id before anything is sent to the backend.
func ValidateIdentity(id Identity) error {
	switch v := normalize(id).(type) {
	case Member:
		return validate.Struct(v)
	case Guest:
		return validate.Struct(v)
	}
	return ErrNoIdentity
}
