package dto

import "time"

type CustomerInput struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Email string `json:"email"`
}

type LockRequest struct {
	BarberID   uint      `json:"barber_id" binding:"required"`
	CustomerID *uint     `json:"customer_id"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
}

type LockDTO struct {
	ID         string    `json:"id"`
	TenantID   uint      `json:"tenant_id"`
	BranchID   uint      `json:"branch_id"`
	BarberID   uint      `json:"barber_id"`
	CustomerID *uint     `json:"customer_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	ExpiresAt  time.Time `json:"expires_at"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CommitRequest books an appointment. Exactly one of CustomerID and
// Customer identifies who is booking.
type CommitRequest struct {
	BarberID   uint           `json:"barber_id" binding:"required"`
	ServiceID  uint           `json:"service_id" binding:"required"`
	StartTime  time.Time      `json:"start_time" binding:"required"`
	CustomerID *uint          `json:"customer_id"`
	Customer   *CustomerInput `json:"customer"`
	LockID     string         `json:"lock_id"`
	Notes      string         `json:"notes"`
}

type AppointmentDTO struct {
	ID        uint      `json:"id"`
	TenantID  uint      `json:"tenant_id"`
	BranchID  uint      `json:"branch_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`

	BarberID   uint   `json:"barber_id"`
	BarberName string `json:"barber_name"`

	CustomerID    uint   `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`

	ServiceID       uint    `json:"service_id"`
	ServiceName     string  `json:"service_name"`
	ServicePrice    float64 `json:"service_price"`
	ServiceDuration int     `json:"service_duration_min"`

	PaymentURL string `json:"payment_url,omitempty"`
}

type AppointmentsResponse struct {
	Data  []AppointmentDTO `json:"data"`
	Total int              `json:"total"`
}
