package schedule

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Interval is a half-open time range [Start, End). Both ends are kept in UTC
// so comparisons never depend on the location they were built in.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds [start, start+d).
func NewInterval(start time.Time, d time.Duration) (Interval, error) {
	if d <= 0 {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start.UTC(), End: start.Add(d).UTC()}, nil
}

// Between builds [start, end) and rejects empty or inverted ranges.
func Between(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start.UTC(), End: end.UTC()}
	if !iv.Valid() {
		return Interval{}, ErrInvalidInterval
	}
	return iv, nil
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether the two ranges share at least one instant.
// Touching ranges ([a,b) and [b,c)) do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Within reports whether i lies entirely inside o.
func (i Interval) Within(o Interval) bool {
	return !i.Start.Before(o.Start) && !i.End.After(o.End)
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.Start.Format(time.RFC3339), i.End.Format(time.RFC3339))
}
