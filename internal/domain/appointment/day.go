package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// Day is a barber's date as the backend sees it: the resolved opening plus
// everything that currently occupies time on it.
type Day struct {
	Location     *time.Location
	Open         schedule.OpenDay
	Locks        []models.AppointmentLock
	Appointments []models.Appointment
}

// Scope identifies where a booking happens.
type Scope struct {
	Tenant *models.Tenant
	Branch *models.Branch
	Barber *models.User
}

func (s Scope) Location() *time.Location {
	return timezone.Location(s.Branch.EffectiveTimezone(*s.Tenant))
}

// LoadScope fetches tenant, branch and barber, and checks they belong
// together.
func LoadScope(ctx context.Context, repo Repository, tenantID, branchID, barberID uint) (*Scope, error) {
	tenant, err := repo.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, NotFound(err, "tenant_not_found")
	}

	branch, err := repo.GetBranch(ctx, tenantID, branchID)
	if err != nil {
		return nil, NotFound(err, "branch_not_found")
	}
	if !branch.Active {
		return nil, errBusiness("branch_not_found")
	}

	barber, err := repo.GetBarber(ctx, tenantID, barberID)
	if err != nil {
		return nil, NotFound(err, "barber_not_found")
	}
	if !barber.Active || (barber.BranchID != nil && *barber.BranchID != branchID) {
		return nil, errBusiness("barber_not_found")
	}

	return &Scope{Tenant: tenant, Branch: branch, Barber: barber}, nil
}

// LoadDay resolves the opening of the date containing day (in the scope's
// location) and the barber's occupants on it.
func LoadDay(ctx context.Context, repo Repository, scope *Scope, day time.Time, now time.Time) (*Day, error) {
	loc := scope.Location()
	date := day.In(loc).Format(schedule.DateLayout)

	weekly, err := repo.ListWorkingHours(ctx, scope.Branch.ID)
	if err != nil {
		return nil, err
	}

	overrides, err := repo.ListOverrides(ctx, scope.Branch.ID, date, date)
	if err != nil {
		return nil, err
	}

	open := schedule.ResolveOpenHours(day, loc, models.WeeklyHours(weekly), models.DayOverrides(overrides))
	bounds := schedule.DayBounds(day, loc)

	locks, err := repo.ListLiveLocks(ctx, scope.Barber.ID, bounds, now)
	if err != nil {
		return nil, err
	}

	appointments, err := repo.ListOccupyingAppointments(ctx, scope.Barber.ID, bounds)
	if err != nil {
		return nil, err
	}

	return &Day{
		Location:     loc,
		Open:         open,
		Locks:        locks,
		Appointments: appointments,
	}, nil
}

// Occupants lists the day's locks and appointments, leaving out the lock
// with id skipLock (the one being consumed, if any).
func (d *Day) Occupants(skipLock string) []schedule.Occupant {
	out := make([]schedule.Occupant, 0, len(d.Locks)+len(d.Appointments))
	for _, l := range d.Locks {
		if l.ID == skipLock {
			continue
		}
		out = append(out, l.Occupant())
	}
	for _, a := range d.Appointments {
		out = append(out, a.Occupant())
	}
	return out
}

// CheckAdvance enforces the tenant minimum notice before a booking starts.
func CheckAdvance(tenant *models.Tenant, candidate schedule.Interval, now time.Time) error {
	minAdvance := tenant.MinAdvanceMinutes
	if minAdvance < 0 {
		minAdvance = 0
	}
	if candidate.Start.Before(now.Add(time.Duration(minAdvance) * time.Minute)) {
		return errBusiness("too_soon")
	}
	return nil
}

// CheckSlot runs the authoritative opening and overlap checks. skipLock
// names a lock that must not count against the candidate.
func (d *Day) CheckSlot(candidate schedule.Interval, skipLock string, now time.Time) error {
	if err := schedule.CheckCandidate(candidate, d.Open, d.Occupants(skipLock), now); err != nil {
		return ScheduleError(err)
	}
	return nil
}
