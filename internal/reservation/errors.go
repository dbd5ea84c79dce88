package reservation

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/BruksfildServices01/barber-booking/internal/client"
)

// Kind classifies every error a Session returns to its caller.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindExpired    Kind = "expired"
	KindTransport  Kind = "transport"
)

var (
	ErrBusy              = errors.New("reservation: action already in flight")
	ErrInvalidTransition = errors.New("reservation: invalid transition")
	ErrAbandoned         = errors.New("reservation: session abandoned")

	ErrNoView          = errors.New("no day loaded")
	ErrStaleView       = errors.New("day view is stale, refresh first")
	ErrNoIdentity      = errors.New("customer identity required")
	ErrSlotUnavailable = errors.New("slot no longer available")
	ErrLockExpired     = errors.New("lock expired")
)

// Error is a failed step of the reservation flow.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or "" when err did not come from a Session.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func invalid(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

func busy(op string) *Error {
	return invalid(op, ErrBusy)
}

// classify maps a gateway error onto the session taxonomy. Anything that is
// not an answer from the backend is a transport failure.
func classify(op string, err error) *Error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		if !errors.Is(err, client.ErrTransport) {
			err = fmt.Errorf("%w: %w", client.ErrTransport, err)
		}
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}

	switch {
	case apiErr.Status == http.StatusConflict || apiErr.Code == "time_conflict":
		return &Error{Kind: KindConflict, Op: op, Err: fmt.Errorf("%w: %w", ErrSlotUnavailable, err)}
	case apiErr.Status == http.StatusGone || apiErr.Code == "lock_expired":
		return &Error{Kind: KindExpired, Op: op, Err: fmt.Errorf("%w: %w", ErrLockExpired, err)}
	case apiErr.Status >= 500:
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
	return &Error{Kind: KindValidation, Op: op, Err: err}
}
