package models

import (
	"strconv"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
)

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TenantID uint   `gorm:"index;not null" json:"tenant_id"`
	BranchID uint   `gorm:"index;not null" json:"branch_id"`
	Branch   Branch `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	BarberID uint `gorm:"index:idx_appointment_barber_start;not null" json:"barber_id"`
	Barber   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"barber"`

	CustomerID uint     `json:"customer_id"`
	Customer   Customer `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"customer"`

	ServiceID uint    `json:"service_id"`
	Service   Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"service"`

	LockID *string `gorm:"type:uuid" json:"lock_id"`

	StartTime time.Time `gorm:"index:idx_appointment_barber_start;not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status string `gorm:"size:20;default:'CONFIRMED'" json:"status"`

	Notes       string     `gorm:"size:255" json:"notes"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	PaymentURL string `gorm:"size:512" json:"payment_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a Appointment) Occupant() schedule.Occupant {
	return schedule.Occupant{
		Kind:     schedule.OccupantAppointment,
		ID:       strconv.FormatUint(uint64(a.ID), 10),
		Interval: schedule.Interval{Start: a.StartTime.UTC(), End: a.EndTime.UTC()},
		Status:   a.Status,
	}
}
