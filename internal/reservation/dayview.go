package reservation

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// DayView is the client's disposable copy of one barber's day.
type DayView struct {
	BarberID  uint
	Date      string
	Location  *time.Location
	Open      schedule.OpenDay
	Occupants []schedule.Occupant
	FetchedAt time.Time
}

// Check runs the local validator for candidate.
func (v *DayView) Check(candidate schedule.Interval, now time.Time) error {
	return schedule.CheckCandidate(candidate, v.Open, v.Occupants, now)
}

// FreeSlots lists the slots of length d the view still shows as free.
func (v *DayView) FreeSlots(d time.Duration, now time.Time) []schedule.Interval {
	return schedule.FreeSlots(v.Open, d, v.Occupants, now)
}

// releaseLock frees the view's copy of a lock the session gave up.
func (v *DayView) releaseLock(lockID string) {
	for i := range v.Occupants {
		if v.Occupants[i].Kind == schedule.OccupantLock && v.Occupants[i].ID == lockID {
			v.Occupants[i].Active = false
		}
	}
}

func (s *Session) fetchDay(ctx context.Context, barberID uint, date string) (*DayView, error) {
	hours, err := s.gw.WorkingHours(ctx, s.tenantID, s.branchID)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(hours.Timezone)
	day, err := schedule.ParseDate(date, loc)
	if err != nil {
		return nil, err
	}

	overrides, err := s.gw.Overrides(ctx, s.tenantID, s.branchID, date, date)
	if err != nil {
		return nil, err
	}

	avail, err := s.gw.Availability(ctx, s.tenantID, s.branchID, barberID, date, 0)
	if err != nil {
		return nil, err
	}

	weekly := make([]schedule.WeeklyHour, 0, len(hours.Data))
	for _, h := range hours.Data {
		weekly = append(weekly, schedule.WeeklyHour{
			WeekDay: h.WeekDay, Start: h.StartTime, End: h.EndTime, IsClosed: h.IsClosed,
		})
	}

	exceptions := make([]schedule.DayOverride, 0, len(overrides.Data))
	for _, o := range overrides.Data {
		exceptions = append(exceptions, schedule.DayOverride{
			Date: o.WorkDate, Start: o.StartTime, End: o.EndTime, IsClosed: o.IsClosed, Reason: o.Reason,
		})
	}

	return &DayView{
		BarberID:  barberID,
		Date:      date,
		Location:  loc,
		Open:      schedule.ResolveOpenHours(day, loc, weekly, exceptions),
		Occupants: occupants(avail),
		FetchedAt: s.now(),
	}, nil
}

// occupants converts the availability answer. The backend only lists live
// locks, so every listed lock is active until its expiry.
func occupants(a *dto.AvailabilityDTO) []schedule.Occupant {
	out := make([]schedule.Occupant, 0, len(a.Locks)+len(a.Appointments))

	for _, l := range a.Locks {
		o := schedule.Occupant{
			Kind:     schedule.OccupantLock,
			ID:       l.ID,
			Interval: schedule.Interval{Start: l.StartTime.UTC(), End: l.EndTime.UTC()},
			Active:   true,
		}
		if l.ExpiresAt != nil {
			o.ExpiresAt = l.ExpiresAt.UTC()
		}
		out = append(out, o)
	}

	for _, ap := range a.Appointments {
		out = append(out, schedule.Occupant{
			Kind:     schedule.OccupantAppointment,
			ID:       ap.ID,
			Interval: schedule.Interval{Start: ap.StartTime.UTC(), End: ap.EndTime.UTC()},
			Status:   ap.Status,
		})
	}

	return out
}
