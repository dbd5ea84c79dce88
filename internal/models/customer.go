package models

import "time"

// Customer has no login; it is identified by phone within a tenant.
type Customer struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	TenantID uint `gorm:"uniqueIndex:idx_customer_tenant_phone;not null" json:"tenant_id"`

	Name  string `gorm:"size:100;not null" json:"name"`
	Phone string `gorm:"size:20;uniqueIndex:idx_customer_tenant_phone" json:"phone"`
	Email string `gorm:"size:100" json:"email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
