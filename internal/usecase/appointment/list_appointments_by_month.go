package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

type ListAppointmentsByMonth struct {
	repo domain.Repository
}

func NewListAppointmentsByMonth(
	repo domain.Repository,
) *ListAppointmentsByMonth {
	return &ListAppointmentsByMonth{
		repo: repo,
	}
}

func (uc *ListAppointmentsByMonth) Execute(
	ctx context.Context,
	actor Actor,
	filter AgendaFilter,
	year int,
	month int,
) (dto.AppointmentsResponse, error) {

	if year < 2000 || month < 1 || month > 12 {
		return dto.AppointmentsResponse{}, httperr.ErrBusiness("invalid_month")
	}

	loc, err := agendaLocation(ctx, uc.repo, actor, filter)
	if err != nil {
		return dto.AppointmentsResponse{}, err
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0)

	return listPeriod(ctx, uc.repo, actor, filter, start, end)
}
