package models

import (
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
)

// WorkingHour is one weekday row of a branch's weekly template.
type WorkingHour struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	BranchID uint `gorm:"uniqueIndex:idx_wh_branch_weekday;not null" json:"branch_id"`

	WeekDay int `gorm:"uniqueIndex:idx_wh_branch_weekday" json:"week_day"`

	StartTime string `gorm:"size:8" json:"start_time"`
	EndTime   string `gorm:"size:8" json:"end_time"`
	IsClosed  bool   `json:"is_closed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w WorkingHour) Weekly() schedule.WeeklyHour {
	return schedule.WeeklyHour{
		WeekDay:  w.WeekDay,
		Start:    w.StartTime,
		End:      w.EndTime,
		IsClosed: w.IsClosed,
	}
}

// WorkingDayOverride replaces the weekly row for one calendar date.
type WorkingDayOverride struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	BranchID uint `gorm:"uniqueIndex:idx_override_branch_date;not null" json:"branch_id"`

	WorkDate  time.Time `gorm:"type:date;uniqueIndex:idx_override_branch_date" json:"work_date"`
	StartTime string    `gorm:"size:8" json:"start_time"`
	EndTime   string    `gorm:"size:8" json:"end_time"`
	IsClosed  bool      `json:"is_closed"`
	Reason    string    `gorm:"size:255" json:"reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Date returns WorkDate as YYYY-MM-DD. Dates are stored at UTC midnight.
func (o WorkingDayOverride) Date() string {
	return o.WorkDate.UTC().Format(schedule.DateLayout)
}

func (o WorkingDayOverride) Override() schedule.DayOverride {
	return schedule.DayOverride{
		Date:     o.Date(),
		Start:    o.StartTime,
		End:      o.EndTime,
		IsClosed: o.IsClosed,
		Reason:   o.Reason,
	}
}

func WeeklyHours(rows []WorkingHour) []schedule.WeeklyHour {
	out := make([]schedule.WeeklyHour, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Weekly())
	}
	return out
}

func DayOverrides(rows []WorkingDayOverride) []schedule.DayOverride {
	out := make([]schedule.DayOverride, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Override())
	}
	return out
}
