package appointment

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// ======================================================
// INPUT
// ======================================================

type CustomerData struct {
	Name  string
	Phone string
	Email string
}

type CommitAppointmentInput struct {
	TenantID  uint
	BranchID  uint
	BarberID  uint
	ServiceID uint
	Start     time.Time

	// Exactly one of CustomerID and Customer.
	CustomerID *uint
	Customer   *CustomerData

	LockID string
	Notes  string

	// Staff member booking on behalf of a customer, if any.
	ActorID *uint
}

// ======================================================
// USE CASE
// ======================================================

type CommitAppointment struct {
	repo    domain.Repository
	audit   *audit.Dispatcher
	cache   domain.AvailabilityCache
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewCommitAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *CommitAppointment {
	return &CommitAppointment{
		repo:  repo,
		audit: audit,
		now:   time.Now,
	}
}

func (uc *CommitAppointment) WithCache(c domain.AvailabilityCache) *CommitAppointment {
	uc.cache = c
	return uc
}

func (uc *CommitAppointment) WithMetrics(m *metrics.Metrics) *CommitAppointment {
	uc.metrics = m
	return uc
}

func (uc *CommitAppointment) WithClock(now func() time.Time) *CommitAppointment {
	uc.now = now
	return uc
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CommitAppointment) Execute(
	ctx context.Context,
	in CommitAppointmentInput,
) (*models.Appointment, error) {

	// --------------------------------------------------
	// 1. Tenant, branch, barber
	// --------------------------------------------------
	scope, err := domain.LoadScope(ctx, uc.repo, in.TenantID, in.BranchID, in.BarberID)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 2. Service and interval
	// --------------------------------------------------
	service, err := uc.repo.GetService(ctx, in.TenantID, in.ServiceID)
	if err != nil {
		return nil, domain.NotFound(err, "service_not_found")
	}

	candidate, err := schedule.NewInterval(in.Start, time.Duration(service.DurationMin)*time.Minute)
	if err != nil {
		return nil, domain.ScheduleError(err)
	}

	// --------------------------------------------------
	// 3. Customer (member or get-or-create guest)
	// --------------------------------------------------
	customer, err := uc.resolveCustomer(ctx, in)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 4. Check + insert + consume lock, serialized per barber
	// --------------------------------------------------
	var ap *models.Appointment

	err = uc.repo.WithBarberLock(ctx, in.BarberID, func(tx domain.Repository) error {
		now := uc.now()

		var lock *models.AppointmentLock
		if in.LockID != "" {
			l, err := uc.loadLock(ctx, tx, in, candidate, customer, now)
			if err != nil {
				return err
			}
			lock = l
		} else if err := domain.CheckAdvance(scope.Tenant, candidate, now); err != nil {
			return err
		}

		day, err := domain.LoadDay(ctx, tx, scope, candidate.Start, now)
		if err != nil {
			return err
		}
		if err := day.CheckSlot(candidate, in.LockID, now); err != nil {
			return err
		}

		ap = &models.Appointment{
			TenantID:   in.TenantID,
			BranchID:   in.BranchID,
			BarberID:   in.BarberID,
			CustomerID: customer.ID,
			ServiceID:  service.ID,
			StartTime:  candidate.Start,
			EndTime:    candidate.End,
			Status:     string(domain.InitialStatus()),
			Notes:      strings.TrimSpace(in.Notes),
		}
		if lock != nil {
			ap.LockID = &lock.ID
		}

		if err := tx.CreateAppointment(ctx, ap); err != nil {
			if httperr.IsExclusionConflict(err) {
				return httperr.ErrBusiness(schedule.ErrOverlap.Error())
			}
			return err
		}

		if lock != nil {
			domain.Consume(lock, now)
			if err := tx.UpdateLock(ctx, lock); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	ap.Barber = *scope.Barber
	ap.Customer = *customer
	ap.Service = *service

	// --------------------------------------------------
	// 5. Side effects
	// --------------------------------------------------
	uc.metrics.Appointment(ap.Status)
	if uc.cache != nil {
		uc.cache.Invalidate(ctx, in.BarberID, candidate.Start.In(scope.Location()).Format(schedule.DateLayout))
	}

	uc.audit.Dispatch(audit.Event{
		TenantID: in.TenantID,
		UserID:   in.ActorID,
		Action:   "appointment_created",
		Entity:   "appointment",
		EntityID: strconv.FormatUint(uint64(ap.ID), 10),
		Metadata: map[string]any{
			"barber_id":  ap.BarberID,
			"service_id": ap.ServiceID,
			"lock_id":    in.LockID,
			"start_time": ap.StartTime,
		},
	})

	return ap, nil
}

func (uc *CommitAppointment) resolveCustomer(
	ctx context.Context,
	in CommitAppointmentInput,
) (*models.Customer, error) {

	switch {
	case in.CustomerID != nil && in.Customer != nil:
		return nil, httperr.ErrBusiness("invalid_customer")

	case in.CustomerID != nil:
		customer, err := uc.repo.GetCustomer(ctx, in.TenantID, *in.CustomerID)
		if err != nil {
			return nil, domain.NotFound(err, "customer_not_found")
		}
		return customer, nil

	case in.Customer != nil:
		name := strings.TrimSpace(in.Customer.Name)
		phone := strings.TrimSpace(in.Customer.Phone)
		if name == "" || phone == "" {
			return nil, httperr.ErrBusiness("invalid_customer")
		}
		return uc.repo.GetOrCreateCustomer(ctx, in.TenantID, name, phone, strings.TrimSpace(in.Customer.Email))
	}

	return nil, httperr.ErrBusiness("invalid_customer")
}

// loadLock checks the lock being consumed still covers exactly this booking.
func (uc *CommitAppointment) loadLock(
	ctx context.Context,
	tx domain.Repository,
	in CommitAppointmentInput,
	candidate schedule.Interval,
	customer *models.Customer,
	now time.Time,
) (*models.AppointmentLock, error) {

	lock, err := tx.GetLock(ctx, in.TenantID, in.BranchID, in.LockID)
	if err != nil {
		return nil, domain.NotFound(err, "lock_not_found")
	}

	if !lock.Live(now) {
		return nil, httperr.ErrBusiness("lock_expired")
	}

	if lock.BarberID != in.BarberID ||
		!lock.StartTime.Equal(candidate.Start) ||
		!lock.EndTime.Equal(candidate.End) {
		return nil, httperr.ErrBusiness("lock_mismatch")
	}

	if lock.CustomerID != nil && *lock.CustomerID != customer.ID {
		return nil, httperr.ErrBusiness("lock_mismatch")
	}

	return lock, nil
}
