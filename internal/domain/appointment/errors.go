package appointment

import (
	"errors"

	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
)

var errBusiness = httperr.ErrBusiness

// NotFound maps ErrNotFound to the business code and passes other errors on.
func NotFound(err error, code string) error {
	if errors.Is(err, ErrNotFound) {
		return httperr.ErrBusiness(code)
	}
	return err
}

// ScheduleError turns a validator error into its business code.
func ScheduleError(err error) error {
	for _, known := range []error{
		schedule.ErrOverlap,
		schedule.ErrClosed,
		schedule.ErrOutsideOpenHours,
		schedule.ErrInvalidInterval,
		schedule.ErrInvalidClock,
		schedule.ErrInvalidDate,
	} {
		if errors.Is(err, known) {
			return httperr.ErrBusiness(known.Error())
		}
	}
	return err
}
