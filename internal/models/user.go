package models

import "time"

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleBarber = "barber"
)

// User is a staff member. Every user can be booked as a barber.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	TenantID uint   `gorm:"index;not null" json:"tenant_id"`
	Tenant   Tenant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	BranchID *uint `gorm:"index" json:"branch_id"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Phone        string `gorm:"size:20" json:"phone"`
	Role         string `gorm:"size:20;default:'owner'" json:"role"`
	AvatarURL    string `gorm:"size:512" json:"avatar_url"`
	Active       bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
