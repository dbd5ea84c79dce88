package appointment

import "github.com/BruksfildServices01/barber-booking/internal/httperr"

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusInService Status = "IN_SERVICE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// ===============================
// Validations
// ===============================

// CanStart only allows a confirmed appointment to go into service.
func CanStart(current Status) error {
	if current != StatusConfirmed {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

// CanCancel only allows cancelling before the service begins.
func CanCancel(current Status) error {
	if current != StatusConfirmed {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

func CanComplete(current Status) error {
	if current != StatusConfirmed && current != StatusInService {
		return httperr.ErrBusiness("invalid_state")
	}
	return nil
}

func InitialStatus() Status {
	return StatusConfirmed
}

// Occupies reports whether an appointment in this status blocks its interval.
func (s Status) Occupies() bool {
	return s != StatusCancelled
}
