package appointment

import (
	"context"
	"strconv"
	"time"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
)

type AvailabilityInput struct {
	TenantID  uint
	BranchID  uint
	BarberID  uint
	Date      string
	ServiceID uint // optional; enables free slots
}

// GetAvailability answers the availability query: resolved opening, live
// locks and occupying appointments of one barber on one date.
type GetAvailability struct {
	repo    domain.Repository
	cache   domain.AvailabilityCache
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewGetAvailability(repo domain.Repository) *GetAvailability {
	return &GetAvailability{repo: repo, now: time.Now}
}

func (uc *GetAvailability) WithCache(c domain.AvailabilityCache) *GetAvailability {
	uc.cache = c
	return uc
}

func (uc *GetAvailability) WithMetrics(m *metrics.Metrics) *GetAvailability {
	uc.metrics = m
	return uc
}

func (uc *GetAvailability) WithClock(now func() time.Time) *GetAvailability {
	uc.now = now
	return uc
}

func (uc *GetAvailability) Execute(
	ctx context.Context,
	in AvailabilityInput,
) (*dto.AvailabilityDTO, error) {

	scope, err := domain.LoadScope(ctx, uc.repo, in.TenantID, in.BranchID, in.BarberID)
	if err != nil {
		return nil, err
	}

	loc := scope.Location()
	day, err := schedule.ParseDate(in.Date, loc)
	if err != nil {
		return nil, domain.ScheduleError(err)
	}

	// the key must match what commits and releases invalidate
	date := day.Format(schedule.DateLayout)
	variant := strconv.FormatUint(uint64(in.ServiceID), 10)
	if uc.cache != nil {
		var cached dto.AvailabilityDTO
		hit := uc.cache.Get(ctx, in.BarberID, date, variant, &cached)
		uc.metrics.CacheLookup(hit)
		if hit {
			return &cached, nil
		}
	}

	var duration time.Duration
	if in.ServiceID != 0 {
		service, err := uc.repo.GetService(ctx, in.TenantID, in.ServiceID)
		if err != nil {
			return nil, domain.NotFound(err, "service_not_found")
		}
		duration = time.Duration(service.DurationMin) * time.Minute
	}

	now := uc.now()
	resolved, err := domain.LoadDay(ctx, uc.repo, scope, day, now)
	if err != nil {
		return nil, err
	}

	out := &dto.AvailabilityDTO{
		Date:         date,
		BarberID:     in.BarberID,
		Timezone:     loc.String(),
		Open:         resolved.Open.Open,
		Source:       string(resolved.Open.Source),
		Reason:       resolved.Open.Reason,
		Locks:        make([]dto.BusyDTO, 0, len(resolved.Locks)),
		Appointments: make([]dto.BusyDTO, 0, len(resolved.Appointments)),
		GeneratedAt:  now.UTC(),
	}

	if resolved.Open.Open {
		from, until := resolved.Open.Window.Start, resolved.Open.Window.End
		out.OpenFrom, out.OpenUntil = &from, &until
	}

	for _, l := range resolved.Locks {
		expires := l.ExpiresAt.UTC()
		out.Locks = append(out.Locks, dto.BusyDTO{
			Kind:      string(schedule.OccupantLock),
			ID:        l.ID,
			StartTime: l.StartTime.UTC(),
			EndTime:   l.EndTime.UTC(),
			ExpiresAt: &expires,
		})
	}

	for _, a := range resolved.Appointments {
		out.Appointments = append(out.Appointments, dto.BusyDTO{
			Kind:      string(schedule.OccupantAppointment),
			ID:        strconv.FormatUint(uint64(a.ID), 10),
			StartTime: a.StartTime.UTC(),
			EndTime:   a.EndTime.UTC(),
			Status:    a.Status,
		})
	}

	if duration > 0 {
		out.ServiceID = in.ServiceID
		out.DurationMin = int(duration / time.Minute)
		out.Slots = []dto.SlotDTO{}

		for _, s := range schedule.FreeSlots(resolved.Open, duration, resolved.Occupants(""), now) {
			if domain.CheckAdvance(scope.Tenant, s, now) != nil {
				continue
			}
			out.Slots = append(out.Slots, dto.SlotDTO{StartTime: s.Start, EndTime: s.End})
		}
	}

	if uc.cache != nil {
		uc.cache.Set(ctx, in.BarberID, date, variant, out)
	}

	return out, nil
}
