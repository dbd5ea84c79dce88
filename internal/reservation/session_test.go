package reservation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/barber-booking/internal/client"
	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
)

const (
	barber  = uint(3)
	service = uint(9)
	day     = "2025-08-10"
)

var (
	morning = time.Date(2025, 8, 10, 8, 0, 0, 0, time.UTC)
	guest   = Guest{Name: "Ana Souza", Phone: "+55 11 99999-0001"}
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 8, 10, hour, minute, 0, 0, time.UTC)
}

// fakeGateway plays the backend. Locks live for ttl from clock().
type fakeGateway struct {
	mu sync.Mutex

	clock     func() time.Time
	ttl       time.Duration
	overrides []dto.OverrideDTO
	locks     []dto.BusyDTO
	appts     []dto.BusyDTO

	hoursErr   error
	lockErr    error
	commitErr  error
	releaseErr error

	// when set, AcquireLock and Commit signal entered and wait for release
	entered chan struct{}
	gate    chan struct{}

	acquireCalls int
	commitCalls  int
	availCalls   int
	released     []string
	lastCommit   dto.CommitRequest
	lastLock     dto.LockRequest
}

func newGateway() *fakeGateway {
	return &fakeGateway{clock: func() time.Time { return morning }, ttl: 5 * time.Minute}
}

func (g *fakeGateway) wait() {
	if g.gate != nil {
		g.entered <- struct{}{}
		<-g.gate
	}
}

func (g *fakeGateway) WorkingHours(context.Context, uint, uint) (*dto.WorkingHoursResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.hoursErr != nil {
		return nil, g.hoursErr
	}

	rows := make([]dto.WorkingHourDTO, 0, 7)
	for d := 0; d < 7; d++ {
		rows = append(rows, dto.WorkingHourDTO{WeekDay: d, StartTime: "09:00", EndTime: "18:00"})
	}
	return &dto.WorkingHoursResponse{BranchID: 1, Timezone: "UTC", Data: rows, Total: len(rows)}, nil
}

func (g *fakeGateway) Overrides(context.Context, uint, uint, string, string) (*dto.OverridesResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &dto.OverridesResponse{BranchID: 1, Data: g.overrides, Total: len(g.overrides)}, nil
}

func (g *fakeGateway) Availability(_ context.Context, _, _, barberID uint, date string, _ uint) (*dto.AvailabilityDTO, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.availCalls++
	return &dto.AvailabilityDTO{
		Date:         date,
		BarberID:     barberID,
		Open:         true,
		Locks:        append([]dto.BusyDTO{}, g.locks...),
		Appointments: append([]dto.BusyDTO{}, g.appts...),
	}, nil
}

func (g *fakeGateway) AcquireLock(_ context.Context, _, _ uint, req dto.LockRequest) (*dto.LockDTO, error) {
	g.wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.acquireCalls++
	g.lastLock = req
	if g.lockErr != nil {
		return nil, g.lockErr
	}
	return &dto.LockDTO{
		ID:         "lock-" + strconv.Itoa(g.acquireCalls),
		BarberID:   req.BarberID,
		CustomerID: req.CustomerID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		ExpiresAt:  g.clock().Add(g.ttl),
		IsActive:   true,
	}, nil
}

func (g *fakeGateway) ReleaseLock(_ context.Context, _, _ uint, lockID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released = append(g.released, lockID)
	return g.releaseErr
}

func (g *fakeGateway) Commit(_ context.Context, _, _ uint, req dto.CommitRequest) (*dto.AppointmentDTO, error) {
	g.wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	g.commitCalls++
	g.lastCommit = req
	if g.commitErr != nil {
		return nil, g.commitErr
	}
	return &dto.AppointmentDTO{
		ID:        1,
		BarberID:  req.BarberID,
		ServiceID: req.ServiceID,
		StartTime: req.StartTime,
		EndTime:   req.StartTime.Add(30 * time.Minute),
		Status:    "CONFIRMED",
	}, nil
}

func (g *fakeGateway) releasedIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string{}, g.released...)
}

func newSession(t *testing.T, g *fakeGateway) *Session {
	t.Helper()
	s := New(g, Config{TenantID: 1, BranchID: 1, Now: g.clock})
	require.NoError(t, s.Refresh(context.Background(), barber, day))
	return s
}

func lockedSession(t *testing.T, g *fakeGateway) *Session {
	t.Helper()
	s := newSession(t, g)
	require.NoError(t, s.Select(at(14, 0), service, 30*time.Minute, guest))
	require.NoError(t, s.Lock(context.Background()))
	require.Equal(t, Locked, s.State())
	return s
}

// listOwnLock makes the backend report the session's lock and reloads the
// view, as when the user refreshes while holding it.
func listOwnLock(t *testing.T, g *fakeGateway, s *Session) {
	t.Helper()
	lock, ok := s.HeldLock()
	require.True(t, ok)

	g.mu.Lock()
	g.locks = append(g.locks, dto.BusyDTO{
		Kind: "lock", ID: lock.ID, StartTime: lock.StartTime, EndTime: lock.EndTime, ExpiresAt: &lock.ExpiresAt,
	})
	g.mu.Unlock()

	require.NoError(t, s.Refresh(context.Background(), barber, day))
	require.Equal(t, Locked, s.State())
}

// ======================================================
// HAPPY PATH
// ======================================================

func TestSessionEndToEnd(t *testing.T) {
	g := newGateway()
	s := newSession(t, g)
	assert.Equal(t, Idle, s.State())

	require.NoError(t, s.Select(at(14, 0), service, 30*time.Minute, guest))
	assert.Equal(t, SlotSelected, s.State())
	assert.Equal(t, 0, g.acquireCalls)

	require.NoError(t, s.Lock(context.Background()))
	assert.Equal(t, Locked, s.State())
	lock, ok := s.HeldLock()
	require.True(t, ok)
	assert.Equal(t, morning.Add(5*time.Minute), lock.ExpiresAt)
	assert.Nil(t, g.lastLock.CustomerID)
	assert.Equal(t, at(14, 30), g.lastLock.EndTime)

	require.NoError(t, s.Commit(context.Background(), "sem máquina"))
	assert.Equal(t, Committed, s.State())

	_, held := s.HeldLock()
	assert.False(t, held)

	ap, ok := s.Appointment()
	require.True(t, ok)
	assert.Equal(t, at(14, 0), ap.StartTime)
	assert.Equal(t, at(14, 30), ap.EndTime)
	assert.Equal(t, "CONFIRMED", ap.Status)

	assert.Equal(t, "lock-1", g.lastCommit.LockID)
	require.NotNil(t, g.lastCommit.Customer)
	assert.Equal(t, "Ana Souza", g.lastCommit.Customer.Name)
	assert.Nil(t, g.lastCommit.CustomerID)
	assert.Empty(t, g.releasedIDs())
}

func TestSessionMemberIdentity(t *testing.T) {
	g := newGateway()
	s := newSession(t, g)

	require.NoError(t, s.Select(at(10, 0), service, 30*time.Minute, Member{CustomerID: 42}))
	require.NoError(t, s.Lock(context.Background()))
	require.NoError(t, s.Commit(context.Background(), ""))

	require.NotNil(t, g.lastLock.CustomerID)
	assert.Equal(t, uint(42), *g.lastLock.CustomerID)
	require.NotNil(t, g.lastCommit.CustomerID)
	assert.Equal(t, uint(42), *g.lastCommit.CustomerID)
	assert.Nil(t, g.lastCommit.Customer)
}

// ======================================================
// LOCAL VALIDATION
// ======================================================

func TestSelectRejectsKnownConflictWithoutNetwork(t *testing.T) {
	g := newGateway()
	expires := morning.Add(3 * time.Minute)
	g.locks = []dto.BusyDTO{{Kind: "lock", ID: "other", StartTime: at(14, 15), EndTime: at(14, 45), ExpiresAt: &expires}}
	s := newSession(t, g)

	err := s.Select(at(14, 0), service, 30*time.Minute, guest)
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.ErrorIs(t, err, schedule.ErrOverlap)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 0, g.acquireCalls)

	// back-to-back with the held interval is fine
	require.NoError(t, s.Select(at(14, 45), service, 30*time.Minute, guest))
}

func TestSelectIgnoresCancelledAppointments(t *testing.T) {
	g := newGateway()
	g.appts = []dto.BusyDTO{{Kind: "appointment", ID: "7", StartTime: at(14, 0), EndTime: at(14, 30), Status: "CANCELLED"}}
	s := newSession(t, g)

	assert.NoError(t, s.Select(at(14, 0), service, 30*time.Minute, guest))
}

func TestSelectOutsideOpenHours(t *testing.T) {
	g := newGateway()
	s := newSession(t, g)

	err := s.Select(at(17, 45), service, 30*time.Minute, guest)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.ErrorIs(t, err, schedule.ErrOutsideOpenHours)

	err = s.Select(at(8, 30), service, 30*time.Minute, guest)
	assert.ErrorIs(t, err, schedule.ErrOutsideOpenHours)

	// ending exactly at closing is allowed
	assert.NoError(t, s.Select(at(17, 30), service, 30*time.Minute, guest))
}

func TestSelectClosedOverrideWins(t *testing.T) {
	g := newGateway()
	g.overrides = []dto.OverrideDTO{{ID: 1, WorkDate: day, IsClosed: true, Reason: "feriado"}}
	s := newSession(t, g)

	view, ok := s.View()
	require.True(t, ok)
	assert.False(t, view.Open.Open)
	assert.Equal(t, schedule.SourceOverride, view.Open.Source)

	for _, h := range []int{9, 12, 14, 17} {
		err := s.Select(at(h, 0), service, 30*time.Minute, guest)
		assert.ErrorIs(t, err, schedule.ErrClosed)
	}
	assert.Equal(t, 0, g.acquireCalls)
}

func TestSelectValidatesIdentity(t *testing.T) {
	g := newGateway()
	s := newSession(t, g)

	err := s.Select(at(10, 0), service, 30*time.Minute, Guest{Name: "A", Phone: "abc"})
	assert.Equal(t, KindValidation, KindOf(err))

	err = s.Select(at(10, 0), service, 30*time.Minute, Member{})
	assert.Equal(t, KindValidation, KindOf(err))

	err = s.Select(at(10, 0), service, 30*time.Minute, nil)
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestSelectRequiresView(t *testing.T) {
	s := New(newGateway(), Config{TenantID: 1, BranchID: 1})

	err := s.Select(at(10, 0), service, 30*time.Minute, guest)
	assert.ErrorIs(t, err, ErrNoView)
}

func TestRefreshRejectsBadDate(t *testing.T) {
	g := newGateway()
	s := New(g, Config{TenantID: 1, BranchID: 1, Now: g.clock})

	err := s.Refresh(context.Background(), barber, "10/08/2025")
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, 0, g.availCalls)
}

// ======================================================
// LOCK
// ======================================================

func TestLockConflictRefreshesAndForbidsBlindRetry(t *testing.T) {
	g := newGateway()
	s := newSession(t, g)
	require.NoError(t, s.Select(at(14, 0), service, 30*time.Minute, guest))

	g.lockErr = &client.APIError{Status: http.StatusConflict, Code: "time_conflict"}
	before := g.availCalls

	err := s.Lock(context.Background())
	assert.Equal(t, KindConflict, KindOf(err))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Equal(t, LockFailed, s.State())
	assert.Equal(t, before+1, g.availCalls)

	err = s.Lock(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 1, g.acquireCalls)
}

func TestFailedRefreshMarksViewStale(t *testing.T) {
	g := newGateway()
	s := newSession(t, g)
	require.NoError(t, s.Select(at(14, 0), service, 30*time.Minute, guest))

	g.lockErr = &client.APIError{Status: http.StatusConflict, Code: "time_conflict"}
	g.hoursErr = fmt.Errorf("%w: connection refused", client.ErrTransport)

	require.Error(t, s.Lock(context.Background()))
	assert.True(t, s.Stale())

	err := s.Select(at(15, 0), service, 30*time.Minute, guest)
	assert.ErrorIs(t, err, ErrStaleView)

	g.hoursErr = nil
	require.NoError(t, s.Refresh(context.Background(), barber, day))
	assert.False(t, s.Stale())
	assert.NoError(t, s.Select(at(15, 0), service, 30*time.Minute, guest))
}

func TestLockTransportError(t *testing.T) {
	g := newGateway()
	s := newSession(t, g)
	require.NoError(t, s.Select(at(14, 0), service, 30*time.Minute, guest))

	g.lockErr = errors.New("dial tcp: connection reset")

	err := s.Lock(context.Background())
	assert.Equal(t, KindTransport, KindOf(err))
	assert.ErrorIs(t, err, client.ErrTransport)
	assert.Equal(t, LockFailed, s.State())
}

func TestLockServerValidationError(t *testing.T) {
	g := newGateway()
	s := newSession(t, g)
	require.NoError(t, s.Select(at(14, 0), service, 30*time.Minute, guest))

	g.lockErr = &client.APIError{Status: http.StatusUnprocessableEntity, Code: "too_soon"}

	err := s.Lock(context.Background())
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestDuplicateLockIsIgnored(t *testing.T) {
	g := newGateway()
	s := newSession(t, g)
	require.NoError(t, s.Select(at(14, 0), service, 30*time.Minute, guest))

	g.entered = make(chan struct{})
	g.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- s.Lock(context.Background()) }()
	<-g.entered

	assert.Equal(t, Locking, s.State())
	err := s.Lock(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.ErrorIs(t, s.Commit(context.Background(), ""), ErrBusy)

	close(g.gate)
	require.NoError(t, <-done)
	assert.Equal(t, Locked, s.State())
	assert.Equal(t, 1, g.acquireCalls)
}

// ======================================================
// EXPIRY
// ======================================================

func TestCommitAfterExpiryIsRejectedLocally(t *testing.T) {
	g := newGateway()
	var mu sync.Mutex
	now := morning
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	g.clock = clock

	s := lockedSession(t, g)
	lock, _ := s.HeldLock()

	mu.Lock()
	now = lock.ExpiresAt.Add(time.Second)
	mu.Unlock()

	err := s.Commit(context.Background(), "")
	assert.Equal(t, KindExpired, KindOf(err))
	assert.ErrorIs(t, err, ErrLockExpired)
	assert.Equal(t, LockExpired, s.State())
	assert.Equal(t, 0, g.commitCalls)

	// a second attempt is rejected the same way
	err = s.Commit(context.Background(), "")
	assert.Equal(t, KindExpired, KindOf(err))
	assert.Equal(t, 0, g.commitCalls)

	// reselecting is allowed
	assert.NoError(t, s.Select(at(15, 0), service, 30*time.Minute, guest))
}

func TestLockExpiresOnTimer(t *testing.T) {
	g := newGateway()
	g.clock = time.Now
	g.ttl = 30 * time.Millisecond

	s := New(g, Config{TenantID: 1, BranchID: 1})
	require.NoError(t, s.Refresh(context.Background(), barber, day))

	// the fixture date is in the past; open a window around the real clock
	s.mu.Lock()
	s.view.Open = schedule.OpenDay{
		Open:   true,
		Window: schedule.Interval{Start: time.Now().Add(time.Hour), End: time.Now().Add(3 * time.Hour)},
	}
	s.mu.Unlock()

	start := time.Now().Add(90 * time.Minute)
	require.NoError(t, s.Select(start, service, 30*time.Minute, guest))
	require.NoError(t, s.Lock(context.Background()))

	assert.Eventually(t, func() bool { return s.State() == LockExpired }, time.Second, 5*time.Millisecond)
	_, held := s.HeldLock()
	assert.False(t, held)
	assert.Equal(t, 0, g.commitCalls)
}

// ======================================================
// COMMIT FAILURE
// ======================================================

func TestCommitFailureReleasesLock(t *testing.T) {
	g := newGateway()
	s := lockedSession(t, g)

	g.commitErr = &client.APIError{Status: http.StatusConflict, Code: "time_conflict"}

	err := s.Commit(context.Background(), "")
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, CommitFailed, s.State())
	assert.Equal(t, []string{"lock-1"}, g.releasedIDs())

	_, held := s.HeldLock()
	assert.False(t, held)

	require.NoError(t, s.Select(at(15, 0), service, 30*time.Minute, guest))
	assert.Equal(t, SlotSelected, s.State())
}

func TestFailedCommitFreesOwnLockInView(t *testing.T) {
	g := newGateway()
	s := lockedSession(t, g)
	listOwnLock(t, g, s)

	g.commitErr = fmt.Errorf("%w: connection reset", client.ErrTransport)

	err := s.Commit(context.Background(), "")
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, CommitFailed, s.State())

	// the released lock no longer blocks its own interval
	require.NoError(t, s.Select(at(14, 0), service, 30*time.Minute, guest))
	assert.Equal(t, SlotSelected, s.State())
}

func TestCommittedSlotStaysTaken(t *testing.T) {
	g := newGateway()
	s := lockedSession(t, g)
	listOwnLock(t, g, s)

	require.NoError(t, s.Commit(context.Background(), ""))

	err := s.Select(at(14, 0), service, 30*time.Minute, guest)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.NoError(t, s.Select(at(14, 30), service, 30*time.Minute, guest))
}

func TestCommitFailureReleaseErrorIsSwallowed(t *testing.T) {
	g := newGateway()
	s := lockedSession(t, g)

	g.commitErr = &client.APIError{Status: http.StatusInternalServerError, Code: "failed_to_create_appointment"}
	g.releaseErr = fmt.Errorf("%w: timeout", client.ErrTransport)

	err := s.Commit(context.Background(), "")
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, CommitFailed, s.State())
	assert.Len(t, g.releasedIDs(), 1)
}

func TestDuplicateCommitIsIgnored(t *testing.T) {
	g := newGateway()
	s := lockedSession(t, g)

	g.entered = make(chan struct{})
	g.gate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- s.Commit(context.Background(), "") }()
	<-g.entered

	assert.ErrorIs(t, s.Commit(context.Background(), ""), ErrBusy)
	assert.ErrorIs(t, s.Cancel(context.Background()), ErrBusy)

	close(g.gate)
	require.NoError(t, <-done)
	assert.Equal(t, Committed, s.State())
	assert.Equal(t, 1, g.commitCalls)
}

// ======================================================
// RELEASE
// ======================================================

func TestCancelReleasesLock(t *testing.T) {
	g := newGateway()
	s := lockedSession(t, g)

	require.NoError(t, s.Cancel(context.Background()))
	assert.Equal(t, Released, s.State())
	assert.Equal(t, []string{"lock-1"}, g.releasedIDs())

	// nothing left to release
	err := s.Cancel(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Len(t, g.releasedIDs(), 1)
}

func TestReleasedLockFreesViewForReselect(t *testing.T) {
	for name, release := range map[string]func(*testing.T, *Session){
		"cancel": func(t *testing.T, s *Session) { require.NoError(t, s.Cancel(context.Background())) },
		"abandon": func(t *testing.T, s *Session) {
			<-s.Abandon()
			require.NoError(t, s.Reset())
		},
	} {
		t.Run(name, func(t *testing.T) {
			g := newGateway()
			s := lockedSession(t, g)
			listOwnLock(t, g, s)

			release(t, s)
			assert.Equal(t, []string{"lock-1"}, g.releasedIDs())

			assert.NoError(t, s.Select(at(14, 0), service, 30*time.Minute, guest))
		})
	}
}

func TestCancelReleaseFailureIsNotRetried(t *testing.T) {
	g := newGateway()
	s := lockedSession(t, g)
	g.releaseErr = fmt.Errorf("%w: network down", client.ErrTransport)

	err := s.Cancel(context.Background())
	assert.Equal(t, KindTransport, KindOf(err))
	assert.Equal(t, Released, s.State())
	assert.Len(t, g.releasedIDs(), 1)
}

func TestCancelSelection(t *testing.T) {
	g := newGateway()
	s := newSession(t, g)
	require.NoError(t, s.Select(at(14, 0), service, 30*time.Minute, guest))

	require.NoError(t, s.Cancel(context.Background()))
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, g.releasedIDs())
}

func TestAbandonReleasesInBackground(t *testing.T) {
	g := newGateway()
	s := lockedSession(t, g)

	done := s.Abandon()
	assert.Equal(t, Released, s.State())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("release not attempted")
	}
	assert.Equal(t, []string{"lock-1"}, g.releasedIDs())
}

func TestAbandonWhileLocking(t *testing.T) {
	g := newGateway()
	s := newSession(t, g)
	require.NoError(t, s.Select(at(14, 0), service, 30*time.Minute, guest))

	g.entered = make(chan struct{})
	g.gate = make(chan struct{})

	result := make(chan error, 1)
	go func() { result <- s.Lock(context.Background()) }()
	<-g.entered

	<-s.Abandon()
	close(g.gate)

	err := <-result
	assert.ErrorIs(t, err, ErrAbandoned)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, Released, s.State())
	assert.Eventually(t, func() bool { return len(g.releasedIDs()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestAbandonWithoutLockDoesNothing(t *testing.T) {
	g := newGateway()
	s := newSession(t, g)

	<-s.Abandon()
	assert.Empty(t, g.releasedIDs())
	assert.Equal(t, Idle, s.State())
}

func TestResetRequiresCancelWhileLocked(t *testing.T) {
	g := newGateway()
	s := lockedSession(t, g)

	assert.ErrorIs(t, s.Reset(), ErrInvalidTransition)
	require.NoError(t, s.Cancel(context.Background()))
	require.NoError(t, s.Reset())
	assert.Equal(t, Idle, s.State())
}
