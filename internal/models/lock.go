package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
)

// AppointmentLock holds a barber's interval for a short time while a
// customer confirms a booking.
type AppointmentLock struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	TenantID   uint  `gorm:"index;not null" json:"tenant_id"`
	BranchID   uint  `gorm:"index;not null" json:"branch_id"`
	BarberID   uint  `gorm:"index:idx_lock_barber_window;not null" json:"barber_id"`
	CustomerID *uint `json:"customer_id"`

	StartTime time.Time `gorm:"index:idx_lock_barber_window;not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	IsActive  bool      `gorm:"default:true;index" json:"is_active"`

	ReleasedAt *time.Time `json:"released_at"`
	ConsumedAt *time.Time `json:"consumed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *AppointmentLock) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Live reports whether the lock still holds its interval at now.
func (l AppointmentLock) Live(now time.Time) bool {
	return l.IsActive && l.ExpiresAt.After(now)
}

func (l AppointmentLock) Occupant() schedule.Occupant {
	return schedule.Occupant{
		Kind:      schedule.OccupantLock,
		ID:        l.ID,
		Interval:  schedule.Interval{Start: l.StartTime.UTC(), End: l.EndTime.UTC()},
		Active:    l.IsActive,
		ExpiresAt: l.ExpiresAt,
	}
}
