package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

var (
	// ErrNotFound is returned by repositories for missing or foreign rows.
	ErrNotFound = errors.New("not_found")

	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate")
)

type Repository interface {
	// -------- Tenancy --------
	GetTenant(ctx context.Context, id uint) (*models.Tenant, error)

	GetBranch(ctx context.Context, tenantID, branchID uint) (*models.Branch, error)

	GetBarber(ctx context.Context, tenantID, barberID uint) (*models.User, error)

	ListBranches(ctx context.Context, tenantID uint) ([]models.Branch, error)

	CreateBranch(ctx context.Context, branch *models.Branch) error

	SaveBranch(ctx context.Context, branch *models.Branch) error

	// ListStaff returns the users assigned to the branch.
	ListStaff(ctx context.Context, tenantID, branchID uint) ([]models.User, error)

	// CreateUser fails with ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// -------- Service --------

	// GetService returns an active service; FindService ignores the flag.
	GetService(ctx context.Context, tenantID, serviceID uint) (*models.Service, error)

	FindService(ctx context.Context, tenantID, serviceID uint) (*models.Service, error)

	ListServices(ctx context.Context, tenantID uint, includeInactive bool) ([]models.Service, error)

	CreateService(ctx context.Context, service *models.Service) error

	SaveService(ctx context.Context, service *models.Service) error

	// -------- Customer --------
	GetCustomer(ctx context.Context, tenantID, customerID uint) (*models.Customer, error)

	GetOrCreateCustomer(
		ctx context.Context,
		tenantID uint,
		name string,
		phone string,
		email string,
	) (*models.Customer, error)

	// SearchCustomers matches term against name (case-insensitive) or phone.
	// An empty term lists everyone, up to limit.
	SearchCustomers(ctx context.Context, tenantID uint, term string, limit int) ([]models.Customer, error)

	// -------- Schedule --------
	ListWorkingHours(ctx context.Context, branchID uint) ([]models.WorkingHour, error)

	// ReplaceWorkingHours swaps the branch's weekly template for rows in
	// one transaction.
	ReplaceWorkingHours(ctx context.Context, branchID uint, rows []models.WorkingHour) error

	// ListOverrides returns overrides whose date lies in [from, to].
	ListOverrides(
		ctx context.Context,
		branchID uint,
		from string,
		to string,
	) ([]models.WorkingDayOverride, error)

	// SaveOverride inserts the override or, when the branch already has one
	// for that date, replaces it in place. o.ID is set to the stored row.
	SaveOverride(ctx context.Context, o *models.WorkingDayOverride) error

	// DeleteOverride fails with ErrNotFound when the override does not
	// belong to the branch.
	DeleteOverride(ctx context.Context, branchID, overrideID uint) error

	// -------- Serialization --------

	// WithBarberLock runs fn in a transaction that holds an exclusive row
	// lock on the barber. Every lock acquisition and commit for a barber goes
	// through here, so checks made inside fn stay true until it returns.
	WithBarberLock(
		ctx context.Context,
		barberID uint,
		fn func(tx Repository) error,
	) error

	// -------- Locks --------
	CreateLock(ctx context.Context, lock *models.AppointmentLock) error

	GetLock(ctx context.Context, tenantID, branchID uint, lockID string) (*models.AppointmentLock, error)

	UpdateLock(ctx context.Context, lock *models.AppointmentLock) error

	// ListLiveLocks returns active, unexpired locks of the barber that
	// overlap window.
	ListLiveLocks(
		ctx context.Context,
		barberID uint,
		window schedule.Interval,
		now time.Time,
	) ([]models.AppointmentLock, error)

	// DeactivateExpiredLocks switches off every active lock whose expiry is
	// at or before now and returns the rows it touched.
	DeactivateExpiredLocks(ctx context.Context, now time.Time) ([]models.AppointmentLock, error)

	// -------- Appointments --------
	CreateAppointment(ctx context.Context, ap *models.Appointment) error

	GetAppointment(ctx context.Context, tenantID, appointmentID uint) (*models.Appointment, error)

	UpdateAppointment(ctx context.Context, ap *models.Appointment) error

	// ListOccupyingAppointments returns the barber's non-cancelled
	// appointments overlapping window.
	ListOccupyingAppointments(
		ctx context.Context,
		barberID uint,
		window schedule.Interval,
	) ([]models.Appointment, error)

	// ListAppointmentsForPeriod returns every appointment of the branch that
	// starts in [from, to), with barber, customer and service preloaded.
	// A zero barberID means all barbers.
	ListAppointmentsForPeriod(
		ctx context.Context,
		tenantID uint,
		branchID uint,
		barberID uint,
		from time.Time,
		to time.Time,
	) ([]models.Appointment, error)
}

// AvailabilityCache stores rendered availability per barber and date.
// Entries for one barber and date are dropped together.
type AvailabilityCache interface {
	Get(ctx context.Context, barberID uint, date string, variant string, dst any) bool
	Set(ctx context.Context, barberID uint, date string, variant string, v any)
	Invalidate(ctx context.Context, barberID uint, date string)
}
