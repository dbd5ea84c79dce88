package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/appointment/appointmenttest"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

var clock = time.Date(2025, 8, 10, 8, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return clock }

func at(hour, minute int) time.Time {
	return time.Date(2025, 8, 10, hour, minute, 0, 0, time.UTC)
}

func member(id uint) *uint { return &id }

func newCommit(repo *appointmenttest.Memory) *CommitAppointment {
	return NewCommitAppointment(repo, nil).WithClock(fixedNow)
}

func addLock(t *testing.T, repo *appointmenttest.Memory, start time.Time, expires time.Time) *models.AppointmentLock {
	t.Helper()
	l := &models.AppointmentLock{
		TenantID: 1, BranchID: 1, BarberID: 1,
		StartTime: start, EndTime: start.Add(30 * time.Minute),
		ExpiresAt: expires, IsActive: true,
	}
	require.NoError(t, repo.CreateLock(context.Background(), l))
	return l
}

// ======================================================
// Commit
// ======================================================

func TestCommitOnOpenSunday(t *testing.T) {
	repo := appointmenttest.Seed()

	ap, err := newCommit(repo).Execute(context.Background(), CommitAppointmentInput{
		TenantID: 1, BranchID: 1, BarberID: 1, ServiceID: 1,
		Start:      at(14, 0),
		CustomerID: member(1),
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusConfirmed), ap.Status)
	assert.True(t, ap.EndTime.Equal(at(14, 30)))
	assert.Equal(t, "Ana", ap.Customer.Name)
	assert.Equal(t, "Corte", ap.Service.Name)
	assert.Nil(t, ap.LockID)
}

func TestCommitConsumesLock(t *testing.T) {
	repo := appointmenttest.Seed()
	ctx := context.Background()
	lock := addLock(t, repo, at(14, 0), clock.Add(5*time.Minute))

	ap, err := newCommit(repo).Execute(ctx, CommitAppointmentInput{
		TenantID: 1, BranchID: 1, BarberID: 1, ServiceID: 1,
		Start:    at(14, 0),
		Customer: &CustomerData{Name: "Bruno", Phone: "+5511988887777"},
		LockID:   lock.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, ap.LockID)
	assert.Equal(t, lock.ID, *ap.LockID)

	stored, err := repo.GetLock(ctx, 1, 1, lock.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.NotNil(t, stored.ConsumedAt)

	// the same lock cannot be consumed twice
	_, err = newCommit(repo).Execute(ctx, CommitAppointmentInput{
		TenantID: 1, BranchID: 1, BarberID: 1, ServiceID: 1,
		Start: at(14, 0), CustomerID: member(1), LockID: lock.ID,
	})
	assert.True(t, httperr.IsBusiness(err, "lock_expired"))
}

func TestCommitWithExpiredLock(t *testing.T) {
	repo := appointmenttest.Seed()
	lock := addLock(t, repo, at(14, 0), clock.Add(-time.Second))

	_, err := newCommit(repo).Execute(context.Background(), CommitAppointmentInput{
		TenantID: 1, BranchID: 1, BarberID: 1, ServiceID: 1,
		Start: at(14, 0), CustomerID: member(1), LockID: lock.ID,
	})
	assert.True(t, httperr.IsBusiness(err, "lock_expired"))
	assert.Empty(t, repo.Appointments)
}

func TestCommitWithLockForAnotherInterval(t *testing.T) {
	repo := appointmenttest.Seed()
	lock := addLock(t, repo, at(15, 0), clock.Add(time.Minute))

	_, err := newCommit(repo).Execute(context.Background(), CommitAppointmentInput{
		TenantID: 1, BranchID: 1, BarberID: 1, ServiceID: 1,
		Start: at(14, 0), CustomerID: member(1), LockID: lock.ID,
	})
	assert.True(t, httperr.IsBusiness(err, "lock_mismatch"))
}

func TestCommitBlockedBySomeoneElsesLock(t *testing.T) {
	repo := appointmenttest.Seed()
	addLock(t, repo, at(14, 15), clock.Add(time.Minute))

	_, err := newCommit(repo).Execute(context.Background(), CommitAppointmentInput{
		TenantID: 1, BranchID: 1, BarberID: 1, ServiceID: 1,
		Start: at(14, 0), CustomerID: member(1),
	})
	assert.True(t, httperr.IsBusiness(err, "time_conflict"))
}

func TestCommitIdentityRules(t *testing.T) {
	repo := appointmenttest.Seed()
	uc := newCommit(repo)
	ctx := context.Background()

	base := CommitAppointmentInput{TenantID: 1, BranchID: 1, BarberID: 1, ServiceID: 1, Start: at(10, 0)}

	in := base
	_, err := uc.Execute(ctx, in)
	assert.True(t, httperr.IsBusiness(err, "invalid_customer"))

	in = base
	in.CustomerID = member(1)
	in.Customer = &CustomerData{Name: "X", Phone: "1"}
	_, err = uc.Execute(ctx, in)
	assert.True(t, httperr.IsBusiness(err, "invalid_customer"))

	in = base
	in.Customer = &CustomerData{Name: "  ", Phone: "1"}
	_, err = uc.Execute(ctx, in)
	assert.True(t, httperr.IsBusiness(err, "invalid_customer"))

	in = base
	in.CustomerID = member(99)
	_, err = uc.Execute(ctx, in)
	assert.True(t, httperr.IsBusiness(err, "customer_not_found"))

	// a guest with a known phone reuses the customer record
	in = base
	in.Customer = &CustomerData{Name: "Ana B.", Phone: "+5511999990001"}
	ap, err := uc.Execute(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, uint(1), ap.CustomerID)
}

func TestCommitStoreErrors(t *testing.T) {
	repo := appointmenttest.Seed()
	in := CommitAppointmentInput{
		TenantID: 1, BranchID: 1, BarberID: 1, ServiceID: 1,
		Start: at(14, 0), CustomerID: member(1),
	}

	repo.FailCreateAppointment = &pgconn.PgError{Code: "23P01"}
	_, err := newCommit(repo).Execute(context.Background(), in)
	assert.True(t, httperr.IsBusiness(err, "time_conflict"))

	repo.FailCreateAppointment = errors.New("boom")
	_, err = newCommit(repo).Execute(context.Background(), in)
	assert.EqualError(t, err, "boom")
}

// ======================================================
// Transitions
// ======================================================

func seedAppointment(t *testing.T, repo *appointmenttest.Memory) *models.Appointment {
	t.Helper()
	ap, err := newCommit(repo).Execute(context.Background(), CommitAppointmentInput{
		TenantID: 1, BranchID: 1, BarberID: 1, ServiceID: 1,
		Start: at(14, 0), CustomerID: member(1),
	})
	require.NoError(t, err)
	return ap
}

func TestStaffTransitions(t *testing.T) {
	repo := appointmenttest.Seed()
	ctx := context.Background()
	ap := seedAppointment(t, repo)
	barber := Actor{TenantID: 1, UserID: 1, Role: models.RoleBarber}

	started, err := NewStartAppointment(repo, nil).WithClock(fixedNow).Execute(ctx, barber, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusInService), started.Status)

	_, err = NewCancelAppointment(repo, nil).Execute(ctx, barber, ap.ID)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))

	done, err := NewCompleteAppointment(repo, nil).Execute(ctx, barber, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), done.Status)
	assert.NotNil(t, done.CompletedAt)
}

func TestBarberCannotTouchOthersAgenda(t *testing.T) {
	repo := appointmenttest.Seed()
	ap := seedAppointment(t, repo)

	other := Actor{TenantID: 1, UserID: 2, Role: models.RoleBarber}
	_, err := NewCancelAppointment(repo, nil).Execute(context.Background(), other, ap.ID)
	assert.True(t, httperr.IsBusiness(err, "appointment_not_found"))

	owner := Actor{TenantID: 1, UserID: 2, Role: models.RoleOwner}
	_, err = NewCancelAppointment(repo, nil).Execute(context.Background(), owner, ap.ID)
	assert.NoError(t, err)
}

func TestCancelFreesSlotForNewBooking(t *testing.T) {
	repo := appointmenttest.Seed()
	ctx := context.Background()
	ap := seedAppointment(t, repo)

	_, err := NewCancelAppointment(repo, nil).Execute(ctx, Actor{TenantID: 1, UserID: 1, Role: models.RoleOwner}, ap.ID)
	require.NoError(t, err)

	_, err = newCommit(repo).Execute(ctx, CommitAppointmentInput{
		TenantID: 1, BranchID: 1, BarberID: 1, ServiceID: 1,
		Start: at(14, 0), CustomerID: member(1),
	})
	assert.NoError(t, err)
}

// ======================================================
// Listing
// ======================================================

func TestListAppointments(t *testing.T) {
	repo := appointmenttest.Seed()
	seedAppointment(t, repo)
	owner := Actor{TenantID: 1, UserID: 1, Role: models.RoleOwner}

	day, err := NewListAppointmentsByDate(repo).Execute(context.Background(), owner, AgendaFilter{BranchID: 1}, "2025-08-10")
	require.NoError(t, err)
	require.Equal(t, 1, day.Total)
	assert.Equal(t, "Corte", day.Data[0].ServiceName)
	assert.Equal(t, "Rafa", day.Data[0].BarberName)

	other, err := NewListAppointmentsByDate(repo).Execute(context.Background(), owner, AgendaFilter{}, "2025-08-11")
	require.NoError(t, err)
	assert.Zero(t, other.Total)

	month, err := NewListAppointmentsByMonth(repo).Execute(context.Background(), owner, AgendaFilter{}, 2025, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, month.Total)

	_, err = NewListAppointmentsByMonth(repo).Execute(context.Background(), owner, AgendaFilter{}, 2025, 13)
	assert.True(t, httperr.IsBusiness(err, "invalid_month"))

	otherBarber := Actor{TenantID: 1, UserID: 2, Role: models.RoleBarber}
	mine, err := NewListAppointmentsByMonth(repo).Execute(context.Background(), otherBarber, AgendaFilter{}, 2025, 8)
	require.NoError(t, err)
	assert.Zero(t, mine.Total)
}

// ======================================================
// Availability
// ======================================================

// memCache drops one barber's date at a time, like the redis cache.
type memCache struct {
	entries     map[string]dto.AvailabilityDTO
	invalidated int
}

func (m *memCache) key(barberID uint, date, variant string) string {
	return fmt.Sprintf("%d/%s/%s", barberID, date, variant)
}

func (m *memCache) Get(_ context.Context, barberID uint, date, variant string, dst any) bool {
	v, ok := m.entries[m.key(barberID, date, variant)]
	if ok {
		*dst.(*dto.AvailabilityDTO) = v
	}
	return ok
}

func (m *memCache) Set(_ context.Context, barberID uint, date, variant string, v any) {
	m.entries[m.key(barberID, date, variant)] = *v.(*dto.AvailabilityDTO)
}

func (m *memCache) Invalidate(_ context.Context, barberID uint, date string) {
	prefix := m.key(barberID, date, "")
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	m.invalidated++
}

func TestGetAvailability(t *testing.T) {
	repo := appointmenttest.Seed()
	seedAppointment(t, repo)
	addLock(t, repo, at(9, 0), clock.Add(time.Minute))
	addLock(t, repo, at(10, 0), clock.Add(-time.Minute))

	out, err := NewGetAvailability(repo).WithClock(fixedNow).Execute(context.Background(), AvailabilityInput{
		TenantID: 1, BranchID: 1, BarberID: 1, Date: "2025-08-10", ServiceID: 1,
	})
	require.NoError(t, err)

	assert.True(t, out.Open)
	assert.Equal(t, "weekly", out.Source)
	require.NotNil(t, out.OpenFrom)
	assert.True(t, out.OpenFrom.Equal(at(9, 0)))
	assert.Len(t, out.Locks, 1)
	assert.Len(t, out.Appointments, 1)
	assert.Len(t, out.Slots, 18-2)
}

func TestGetAvailabilityClosedDay(t *testing.T) {
	repo := appointmenttest.Seed()
	repo.Overrides = append(repo.Overrides, models.WorkingDayOverride{
		BranchID: 1, WorkDate: time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC), IsClosed: true, Reason: "feriado",
	})

	out, err := NewGetAvailability(repo).WithClock(fixedNow).Execute(context.Background(), AvailabilityInput{
		TenantID: 1, BranchID: 1, BarberID: 1, Date: "2025-08-10", ServiceID: 1,
	})
	require.NoError(t, err)
	assert.False(t, out.Open)
	assert.Equal(t, "override", out.Source)
	assert.Equal(t, "feriado", out.Reason)
	assert.Empty(t, out.Slots)
}

func TestAvailabilityCacheIsDroppedOnCommit(t *testing.T) {
	repo := appointmenttest.Seed()
	cache := &memCache{entries: map[string]dto.AvailabilityDTO{}}
	ctx := context.Background()

	get := NewGetAvailability(repo).WithCache(cache).WithClock(fixedNow)
	in := AvailabilityInput{TenantID: 1, BranchID: 1, BarberID: 1, Date: "2025-08-10"}

	first, err := get.Execute(ctx, in)
	require.NoError(t, err)
	assert.Empty(t, first.Appointments)
	assert.Len(t, cache.entries, 1)

	_, err = newCommit(repo).WithCache(cache).Execute(ctx, CommitAppointmentInput{
		TenantID: 1, BranchID: 1, BarberID: 1, ServiceID: 1, Start: at(14, 0), CustomerID: member(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	second, err := get.Execute(ctx, in)
	require.NoError(t, err)
	assert.Len(t, second.Appointments, 1)
}

func TestAvailabilityCacheKeyIsCanonicalDate(t *testing.T) {
	repo := appointmenttest.Seed()
	cache := &memCache{entries: map[string]dto.AvailabilityDTO{}}
	ctx := context.Background()

	get := NewGetAvailability(repo).WithCache(cache).WithClock(fixedNow)
	padded := AvailabilityInput{TenantID: 1, BranchID: 1, BarberID: 1, Date: " 2025-08-10 "}

	first, err := get.Execute(ctx, padded)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-10", first.Date)
	assert.Contains(t, cache.entries, cache.key(1, "2025-08-10", "0"))

	_, err = newCommit(repo).WithCache(cache).Execute(ctx, CommitAppointmentInput{
		TenantID: 1, BranchID: 1, BarberID: 1, ServiceID: 1, Start: at(14, 0), CustomerID: member(1),
	})
	require.NoError(t, err)
	assert.Empty(t, cache.entries)

	second, err := get.Execute(ctx, padded)
	require.NoError(t, err)
	assert.Len(t, second.Appointments, 1)
}

func TestGetAvailabilityBadDate(t *testing.T) {
	repo := appointmenttest.Seed()
	_, err := NewGetAvailability(repo).Execute(context.Background(), AvailabilityInput{
		TenantID: 1, BranchID: 1, BarberID: 1, Date: "10/08/2025",
	})
	assert.True(t, httperr.IsBusiness(err, "invalid_date"))
}

// ======================================================
// Checkout
// ======================================================

type stubLinker struct{ calls int }

func (s *stubLinker) CreateLink(_ context.Context, ap *models.Appointment) (string, error) {
	s.calls++
	return "https://pay.example.com/" + ap.Service.Name, nil
}

func TestCreateCheckout(t *testing.T) {
	repo := appointmenttest.Seed()
	ap := seedAppointment(t, repo)
	owner := Actor{TenantID: 1, UserID: 1, Role: models.RoleOwner}
	linker := &stubLinker{}

	uc := NewCreateCheckout(repo, nil, linker)
	out, err := uc.Execute(context.Background(), owner, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/Corte", out.PaymentURL)

	_, err = uc.Execute(context.Background(), owner, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, linker.calls)

	_, err = NewCreateCheckout(repo, nil, nil).Execute(context.Background(), owner, ap.ID)
	assert.True(t, httperr.IsBusiness(err, "payments_disabled"))
}
