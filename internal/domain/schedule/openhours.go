package schedule

import (
	"strings"
	"time"
)

// WeeklyHour is one row of a branch's recurring weekly template.
// Start and End are wall-clock "HH:MM" values in the branch location.
type WeeklyHour struct {
	WeekDay  int
	Start    string
	End      string
	IsClosed bool
}

// DayOverride replaces the weekly template for a single calendar date.
type DayOverride struct {
	Date     string // YYYY-MM-DD
	Start    string
	End      string
	IsClosed bool
	Reason   string
}

type Source string

const (
	SourceOverride Source = "override"
	SourceWeekly   Source = "weekly"
	SourceMissing  Source = "missing"
)

// OpenDay is the effective opening of one branch on one date.
type OpenDay struct {
	Date   string
	Open   bool
	Window Interval
	Source Source
	Reason string
}

// ResolveOpenHours computes the open window for the calendar date of day as
// seen in loc. An override for that date decides on its own; otherwise the
// weekly row for the weekday applies. A date with no usable row is closed.
func ResolveOpenHours(
	day time.Time,
	loc *time.Location,
	weekly []WeeklyHour,
	overrides []DayOverride,
) OpenDay {

	if loc == nil {
		loc = time.UTC
	}

	local := day.In(loc)
	date := local.Format(DateLayout)

	for _, ov := range overrides {
		if ov.Date != date {
			continue
		}

		out := OpenDay{Date: date, Source: SourceOverride, Reason: ov.Reason}
		if ov.IsClosed {
			return out
		}
		if w, ok := windowOn(local, ov.Start, ov.End, loc); ok {
			out.Open = true
			out.Window = w
		}
		return out
	}

	weekday := int(local.Weekday())
	for _, wh := range weekly {
		if wh.WeekDay != weekday {
			continue
		}

		out := OpenDay{Date: date, Source: SourceWeekly}
		if wh.IsClosed {
			return out
		}
		if w, ok := windowOn(local, wh.Start, wh.End, loc); ok {
			out.Open = true
			out.Window = w
		}
		return out
	}

	return OpenDay{Date: date, Source: SourceMissing}
}

// windowOn anchors two wall-clock values to the date of day. Unparseable or
// inverted values yield no window, which callers treat as closed.
func windowOn(day time.Time, startHM, endHM string, loc *time.Location) (Interval, bool) {
	start, err := ClockOn(day, startHM, loc)
	if err != nil {
		return Interval{}, false
	}
	end, err := ClockOn(day, endHM, loc)
	if err != nil {
		return Interval{}, false
	}

	w, err := Between(start, end)
	if err != nil {
		return Interval{}, false
	}
	return w, true
}

// ClockOn returns the instant at wall-clock hm on the calendar date of day in loc.
// Both "15:04" and "15:04:05" are accepted.
func ClockOn(day time.Time, hm string, loc *time.Location) (time.Time, error) {
	hm = strings.TrimSpace(hm)
	if len(hm) > len(ClockLayout) {
		hm = hm[:len(ClockLayout)]
	}

	t, err := time.Parse(ClockLayout, hm)
	if err != nil {
		return time.Time{}, ErrInvalidClock
	}

	local := day.In(loc)
	return time.Date(
		local.Year(), local.Month(), local.Day(),
		t.Hour(), t.Minute(), 0, 0,
		loc,
	), nil
}

// ParseDate reads a YYYY-MM-DD value as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// DayBounds returns [00:00, next 00:00) of the date of day in loc.
func DayBounds(day time.Time, loc *time.Location) Interval {
	local := day.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Interval{Start: start.UTC(), End: start.AddDate(0, 0, 1).UTC()}
}
