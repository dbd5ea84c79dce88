package schedule

import (
	"fmt"
	"time"
)

type OccupantKind string

const (
	OccupantLock        OccupantKind = "lock"
	OccupantAppointment OccupantKind = "appointment"
)

// StatusCancelled is the only appointment status that frees its interval.
const StatusCancelled = "CANCELLED"

// Occupant is something that may hold a barber's time: a lock or an appointment.
type Occupant struct {
	Kind      OccupantKind
	ID        string
	Interval  Interval
	Active    bool
	ExpiresAt time.Time
	Status    string
}

// Occupies reports whether the occupant blocks its interval at now.
// A lock without a known expiry is treated as live.
func (o Occupant) Occupies(now time.Time) bool {
	switch o.Kind {
	case OccupantLock:
		if !o.Active {
			return false
		}
		return o.ExpiresAt.IsZero() || o.ExpiresAt.After(now)
	case OccupantAppointment:
		return o.Status != StatusCancelled
	}
	return false
}

// ConflictError names the occupant a candidate collided with.
type ConflictError struct {
	Candidate Interval
	With      Occupant
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s overlaps %s %s %s",
		ErrOverlap, e.Candidate, e.With.Kind, e.With.ID, e.With.Interval)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrOverlap
}

// FindConflict returns the first occupying entry overlapping candidate.
func FindConflict(candidate Interval, occupants []Occupant, now time.Time) (Occupant, bool) {
	for _, o := range occupants {
		if !o.Occupies(now) {
			continue
		}
		if candidate.Overlaps(o.Interval) {
			return o, true
		}
	}
	return Occupant{}, false
}

// CheckCandidate validates a candidate slot against the day's opening and
// the known occupants. It performs no I/O.
func CheckCandidate(candidate Interval, day OpenDay, occupants []Occupant, now time.Time) error {
	if !candidate.Valid() {
		return ErrInvalidInterval
	}
	if !day.Open {
		return ErrClosed
	}
	if !candidate.Within(day.Window) {
		return ErrOutsideOpenHours
	}
	if o, found := FindConflict(candidate, occupants, now); found {
		return &ConflictError{Candidate: candidate, With: o}
	}
	return nil
}

// FreeSlots walks the open window in steps of length d and returns the
// slots that are not blocked at now.
func FreeSlots(day OpenDay, d time.Duration, occupants []Occupant, now time.Time) []Interval {
	if !day.Open || d <= 0 {
		return []Interval{}
	}

	slots := []Interval{}
	for cur := day.Window.Start; !cur.Add(d).After(day.Window.End); cur = cur.Add(d) {
		slot := Interval{Start: cur, End: cur.Add(d)}
		if _, found := FindConflict(slot, occupants, now); found {
			continue
		}
		slots = append(slots, slot)
	}
	return slots
}
