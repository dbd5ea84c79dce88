package appointment

import (
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// ===============================
// Domain Actions
// ===============================

func Start(ap *models.Appointment, now time.Time) error {
	if err := CanStart(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusInService)
	ap.StartedAt = &now
	return nil
}

func Cancel(ap *models.Appointment, now time.Time) error {
	if err := CanCancel(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCancelled)
	ap.CancelledAt = &now
	return nil
}

func Complete(ap *models.Appointment, now time.Time) error {
	if err := CanComplete(Status(ap.Status)); err != nil {
		return err
	}

	ap.Status = string(StatusCompleted)
	ap.CompletedAt = &now
	return nil
}

// Consume marks a lock as turned into an appointment.
func Consume(lock *models.AppointmentLock, now time.Time) {
	lock.IsActive = false
	lock.ConsumedAt = &now
}

// Release frees a lock. It reports false when the lock was already inactive.
func Release(lock *models.AppointmentLock, now time.Time) bool {
	if !lock.IsActive {
		return false
	}
	lock.IsActive = false
	lock.ReleasedAt = &now
	return true
}
