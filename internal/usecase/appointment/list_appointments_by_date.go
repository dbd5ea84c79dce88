package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// AgendaFilter narrows a listing. Zero ids mean "all"; barbers are always
// limited to their own agenda.
type AgendaFilter struct {
	BranchID uint
	BarberID uint
}

type ListAppointmentsByDate struct {
	repo domain.Repository
}

func NewListAppointmentsByDate(
	repo domain.Repository,
) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{
		repo: repo,
	}
}

func (uc *ListAppointmentsByDate) Execute(
	ctx context.Context,
	actor Actor,
	filter AgendaFilter,
	date string,
) (dto.AppointmentsResponse, error) {

	loc, err := agendaLocation(ctx, uc.repo, actor, filter)
	if err != nil {
		return dto.AppointmentsResponse{}, err
	}

	day, err := schedule.ParseDate(date, loc)
	if err != nil {
		return dto.AppointmentsResponse{}, domain.ScheduleError(err)
	}
	bounds := schedule.DayBounds(day, loc)

	return listPeriod(ctx, uc.repo, actor, filter, bounds.Start, bounds.End)
}

func agendaLocation(
	ctx context.Context,
	repo domain.Repository,
	actor Actor,
	filter AgendaFilter,
) (*time.Location, error) {

	tenant, err := repo.GetTenant(ctx, actor.TenantID)
	if err != nil {
		return nil, domain.NotFound(err, "tenant_not_found")
	}

	tz := tenant.Timezone
	if filter.BranchID != 0 {
		branch, err := repo.GetBranch(ctx, actor.TenantID, filter.BranchID)
		if err != nil {
			return nil, domain.NotFound(err, "branch_not_found")
		}
		tz = branch.EffectiveTimezone(*tenant)
	}

	return timezone.Location(tz), nil
}

func listPeriod(
	ctx context.Context,
	repo domain.Repository,
	actor Actor,
	filter AgendaFilter,
	from time.Time,
	to time.Time,
) (dto.AppointmentsResponse, error) {

	barberID := filter.BarberID
	if !actor.CanSeeAll() {
		barberID = actor.UserID
	}

	appointments, err := repo.ListAppointmentsForPeriod(
		ctx,
		actor.TenantID,
		filter.BranchID,
		barberID,
		from,
		to,
	)
	if err != nil {
		return dto.AppointmentsResponse{}, err
	}

	return dto.FromAppointments(appointments), nil
}
