// Package reservation drives one customer from picking a slot to a
// confirmed appointment, holding a short server-side lock in between.
//
// A Session is meant to be driven by one UI. Network calls run without the
// session mutex held; while one is in flight every other action returns
// ErrBusy immediately instead of queueing.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
)

const defaultReleaseTimeout = 5 * time.Second

// Gateway is the backend surface the session needs. *client.Client
// implements it.
type Gateway interface {
	WorkingHours(ctx context.Context, tenantID, branchID uint) (*dto.WorkingHoursResponse, error)
	Overrides(ctx context.Context, tenantID, branchID uint, from, to string) (*dto.OverridesResponse, error)
	Availability(ctx context.Context, tenantID, branchID, barberID uint, date string, serviceID uint) (*dto.AvailabilityDTO, error)
	AcquireLock(ctx context.Context, tenantID, branchID uint, req dto.LockRequest) (*dto.LockDTO, error)
	ReleaseLock(ctx context.Context, tenantID, branchID uint, lockID string) error
	Commit(ctx context.Context, tenantID, branchID uint, req dto.CommitRequest) (*dto.AppointmentDTO, error)
}

type Config struct {
	TenantID uint
	BranchID uint

	// Now defaults to time.Now.
	Now func() time.Time

	// ReleaseTimeout bounds best-effort releases. Defaults to 5s.
	ReleaseTimeout time.Duration
}

// Slot is the selected candidate.
type Slot struct {
	BarberID  uint
	ServiceID uint
	Interval  schedule.Interval
	Identity  Identity
}

type Session struct {
	gw             Gateway
	tenantID       uint
	branchID       uint
	now            func() time.Time
	releaseTimeout time.Duration

	mu          sync.Mutex
	state       State
	busy        bool
	abandoned   bool
	view        *DayView
	stale       bool
	slot        *Slot
	lock        *dto.LockDTO
	appointment *dto.AppointmentDTO
	expiry      *time.Timer
}

func New(gw Gateway, cfg Config) *Session {
	s := &Session{
		gw:             gw,
		tenantID:       cfg.TenantID,
		branchID:       cfg.BranchID,
		now:            cfg.Now,
		releaseTimeout: cfg.ReleaseTimeout,
		state:          Idle,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.releaseTimeout <= 0 {
		s.releaseTimeout = defaultReleaseTimeout
	}
	return s
}

// ======================================================
// ACCESSORS
// ======================================================

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stale reports whether the last refresh failed.
func (s *Session) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

func (s *Session) View() (DayView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return DayView{}, false
	}
	return *s.view, true
}

func (s *Session) Slot() (Slot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slot == nil {
		return Slot{}, false
	}
	return *s.slot, true
}

// HeldLock returns the lock while the session is Locked or Committing.
func (s *Session) HeldLock() (dto.LockDTO, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lock == nil {
		return dto.LockDTO{}, false
	}
	return *s.lock, true
}

func (s *Session) Appointment() (dto.AppointmentDTO, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appointment == nil {
		return dto.AppointmentDTO{}, false
	}
	return *s.appointment, true
}

func (s *Session) invalidTransition(op string) error {
	return invalid(op, fmt.Errorf("%w from %s", ErrInvalidTransition, s.state))
}

// forgetLock drops lockID from the loaded view so the released interval is
// selectable again. s.mu must be held.
func (s *Session) forgetLock(lockID string) {
	if s.view != nil {
		s.view.releaseLock(lockID)
	}
}

// ======================================================
// REFRESH
// ======================================================

// Refresh loads the barber's day: working hours, overrides and what
// currently occupies it. It never changes the state.
func (s *Session) Refresh(ctx context.Context, barberID uint, date string) error {
	if _, err := schedule.ParseDate(date, time.UTC); err != nil {
		return invalid("refresh", err)
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return busy("refresh")
	}
	s.busy = true
	s.mu.Unlock()

	err := s.reload(ctx, barberID, date)

	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()

	if err != nil {
		return classify("refresh", err)
	}
	return nil
}

// reload fetches the day and installs it; a failure marks the view stale.
func (s *Session) reload(ctx context.Context, barberID uint, date string) error {
	view, err := s.fetchDay(ctx, barberID, date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.stale = true
		return err
	}
	s.view = view
	s.stale = false
	return nil
}

func (s *Session) reloadCurrent(ctx context.Context) {
	s.mu.Lock()
	if s.view == nil {
		s.mu.Unlock()
		return
	}
	barberID, date := s.view.BarberID, s.view.Date
	s.mu.Unlock()

	if err := s.reload(ctx, barberID, date); err != nil {
		log.Printf("reservation: refresh after failure: %v", err)
	}
}

// ======================================================
// SELECT
// ======================================================

// Select picks [start, start+duration) on the loaded day. It only checks
// the local view and makes no network call.
func (s *Session) Select(start time.Time, serviceID uint, duration time.Duration, id Identity) error {
	const op = "select"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return busy(op)
	}
	if !s.state.canSelect() {
		return s.invalidTransition(op)
	}
	if s.view == nil {
		return invalid(op, ErrNoView)
	}
	if s.stale {
		return invalid(op, ErrStaleView)
	}

	id = normalize(id)
	if err := ValidateIdentity(id); err != nil {
		return invalid(op, err)
	}

	candidate, err := schedule.NewInterval(start, duration)
	if err != nil {
		return invalid(op, err)
	}

	if err := s.view.Check(candidate, s.now()); err != nil {
		if errors.Is(err, schedule.ErrOverlap) {
			return &Error{Kind: KindConflict, Op: op, Err: fmt.Errorf("%w: %w", ErrSlotUnavailable, err)}
		}
		return invalid(op, err)
	}

	s.slot = &Slot{
		BarberID:  s.view.BarberID,
		ServiceID: serviceID,
		Interval:  candidate,
		Identity:  id,
	}
	s.state = SlotSelected
	s.appointment = nil
	s.abandoned = false
	return nil
}

// ======================================================
// LOCK
// ======================================================

// Lock asks the backend to hold the selected slot. A rejected interval
// leaves the session in LockFailed; the caller must Select again.
func (s *Session) Lock(ctx context.Context) error {
	const op = "lock"

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return busy(op)
	}
	if s.state != SlotSelected {
		defer s.mu.Unlock()
		return s.invalidTransition(op)
	}
	s.busy = true
	s.state = Locking
	slot := *s.slot
	s.mu.Unlock()

	l, err := s.gw.AcquireLock(ctx, s.tenantID, s.branchID, dto.LockRequest{
		BarberID:   slot.BarberID,
		CustomerID: slot.Identity.lockCustomer(),
		StartTime:  slot.Interval.Start,
		EndTime:    slot.Interval.End,
	})

	if err != nil {
		e := classify(op, err)
		if e.Kind == KindConflict {
			s.reloadCurrent(ctx)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.busy = false
		s.state = LockFailed
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	if s.abandoned {
		s.state = Released
		s.forgetLock(l.ID)
		s.releaseAsync(*l)
		return invalid(op, ErrAbandoned)
	}

	if !l.ExpiresAt.After(s.now()) {
		s.state = LockExpired
		return &Error{Kind: KindExpired, Op: op, Err: ErrLockExpired}
	}

	s.lock = l
	s.state = Locked
	s.armExpiry(l.ID, l.ExpiresAt)
	return nil
}

func (s *Session) armExpiry(lockID string, at time.Time) {
	s.stopExpiry()
	s.expiry = time.AfterFunc(at.Sub(s.now()), func() { s.expire(lockID) })
}

func (s *Session) stopExpiry() {
	if s.expiry != nil {
		s.expiry.Stop()
		s.expiry = nil
	}
}

// expire drops the lock locally once its expiry has passed.
func (s *Session) expire(lockID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Locked || s.lock == nil || s.lock.ID != lockID {
		return
	}
	s.state = LockExpired
	s.lock = nil
	s.expiry = nil
}

// ======================================================
// COMMIT
// ======================================================

// Commit converts the held lock into an appointment. An expired lock is
// rejected before any network call.
func (s *Session) Commit(ctx context.Context, notes string) error {
	const op = "commit"

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return busy(op)
	}
	if s.state == LockExpired {
		s.mu.Unlock()
		return &Error{Kind: KindExpired, Op: op, Err: ErrLockExpired}
	}
	if s.state != Locked {
		defer s.mu.Unlock()
		return s.invalidTransition(op)
	}
	if !s.now().Before(s.lock.ExpiresAt) {
		s.stopExpiry()
		s.state = LockExpired
		s.lock = nil
		s.mu.Unlock()
		return &Error{Kind: KindExpired, Op: op, Err: ErrLockExpired}
	}

	s.stopExpiry()
	s.busy = true
	s.state = Committing
	l := *s.lock
	slot := *s.slot
	s.mu.Unlock()

	req := dto.CommitRequest{
		BarberID:  slot.BarberID,
		ServiceID: slot.ServiceID,
		StartTime: slot.Interval.Start,
		LockID:    l.ID,
		Notes:     notes,
	}
	slot.Identity.apply(&req)

	ap, err := s.gw.Commit(ctx, s.tenantID, s.branchID, req)
	if err == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.busy = false
		s.state = Committed
		s.lock = nil
		s.forgetLock(l.ID)
		if s.view != nil {
			s.view.Occupants = append(s.view.Occupants, schedule.Occupant{
				Kind:     schedule.OccupantAppointment,
				ID:       strconv.FormatUint(uint64(ap.ID), 10),
				Interval: slot.Interval,
				Status:   ap.Status,
			})
		}
		s.appointment = ap
		return nil
	}

	e := classify(op, err)

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.releaseTimeout)
	if rerr := s.gw.ReleaseLock(rctx, s.tenantID, s.branchID, l.ID); rerr != nil {
		log.Printf("reservation: release %s after failed commit: %v", l.ID, rerr)
	}
	cancel()

	if e.Kind == KindConflict || e.Kind == KindExpired {
		s.reloadCurrent(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.state = CommitFailed
	s.lock = nil
	s.forgetLock(l.ID)
	return e
}

// ======================================================
// CANCEL / ABANDON / RESET
// ======================================================

// Cancel steps back from a selection or releases the held lock. A failed
// release is reported but not retried; the lock's expiry frees the slot.
func (s *Session) Cancel(ctx context.Context) error {
	const op = "release"

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return busy("cancel")
	}

	switch s.state {
	case SlotSelected:
		s.state = Idle
		s.slot = nil
		s.mu.Unlock()
		return nil
	case Locked:
	default:
		defer s.mu.Unlock()
		return s.invalidTransition("cancel")
	}

	l := *s.lock
	s.stopExpiry()
	s.lock = nil
	s.forgetLock(l.ID)
	s.state = Released
	s.busy = true
	s.mu.Unlock()

	err := s.gw.ReleaseLock(ctx, s.tenantID, s.branchID, l.ID)

	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()

	if err != nil {
		return classify(op, err)
	}
	return nil
}

// Abandon is for navigating away. A held lock is released in the
// background; the returned channel closes when that attempt is over. A lock
// still being acquired is released as soon as it arrives.
func (s *Session) Abandon() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abandoned = true

	if s.state != Locked {
		done := make(chan struct{})
		close(done)
		return done
	}

	l := *s.lock
	s.stopExpiry()
	s.lock = nil
	s.forgetLock(l.ID)
	s.state = Released
	return s.releaseAsync(l)
}

// releaseAsync must be called with s.mu held.
func (s *Session) releaseAsync(l dto.LockDTO) <-chan struct{} {
	done := make(chan struct{})
	timeout := s.releaseTimeout

	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.gw.ReleaseLock(ctx, s.tenantID, s.branchID, l.ID); err != nil {
			log.Printf("reservation: release %s: %v", l.ID, err)
		}
	}()

	return done
}

// Reset returns to Idle. A held lock must be cancelled first.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return busy("reset")
	}
	if s.state == Locked {
		return s.invalidTransition("reset")
	}

	s.state = Idle
	s.slot = nil
	s.lock = nil
	s.appointment = nil
	s.abandoned = false
	return nil
}
