package models

import "time"

// Tenant is a barbershop business; it owns branches, staff and services.
type Tenant struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:100;not null" json:"name"`
	Slug              string    `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Phone             string    `gorm:"size:20" json:"phone"`
	Timezone          string    `gorm:"size:64;default:'America/Sao_Paulo'" json:"timezone"`
	MinAdvanceMinutes int       `gorm:"default:120" json:"min_advance_minutes"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Branch struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	TenantID uint   `gorm:"index;not null" json:"tenant_id"`
	Tenant   Tenant `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Name    string `gorm:"size:100;not null" json:"name"`
	Address string `gorm:"size:255" json:"address"`
	Phone   string `gorm:"size:20" json:"phone"`

	// Empty means the tenant timezone applies.
	Timezone string `gorm:"size:64" json:"timezone"`
	Active   bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveTimezone returns the branch zone, falling back to the tenant's.
func (b Branch) EffectiveTimezone(tenant Tenant) string {
	if b.Timezone != "" {
		return b.Timezone
	}
	return tenant.Timezone
}
