package dto

import "time"

type WorkingHourDTO struct {
	WeekDay   int    `json:"week_day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsClosed  bool   `json:"is_closed"`
}

type WorkingHoursResponse struct {
	BranchID uint             `json:"branch_id"`
	Timezone string           `json:"timezone"`
	Data     []WorkingHourDTO `json:"data"`
	Total    int              `json:"total"`
}

type OverrideDTO struct {
	ID        uint   `json:"id"`
	WorkDate  string `json:"work_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsClosed  bool   `json:"is_closed"`
	Reason    string `json:"reason"`
}

type OverridesResponse struct {
	BranchID uint          `json:"branch_id"`
	Data     []OverrideDTO `json:"data"`
	Total    int           `json:"total"`
}

type BusyDTO struct {
	Kind      string     `json:"kind"`
	ID        string     `json:"id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Status    string     `json:"status,omitempty"`
}

type SlotDTO struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// AvailabilityDTO is one barber's day: the resolved opening and what
// currently occupies it.
type AvailabilityDTO struct {
	Date      string     `json:"date"`
	BarberID  uint       `json:"barber_id"`
	Timezone  string     `json:"timezone"`
	Open      bool       `json:"open"`
	OpenFrom  *time.Time `json:"open_from,omitempty"`
	OpenUntil *time.Time `json:"open_until,omitempty"`
	Source    string     `json:"source"`
	Reason    string     `json:"reason,omitempty"`

	Locks        []BusyDTO `json:"locks"`
	Appointments []BusyDTO `json:"appointments"`

	// Present when the query named a service.
	ServiceID   uint      `json:"service_id,omitempty"`
	DurationMin int       `json:"duration_min,omitempty"`
	Slots       []SlotDTO `json:"slots,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}
