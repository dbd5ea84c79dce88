package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

var _ domain.Repository = (*AppointmentGormRepository)(nil)

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// --------------------------------------------------
// Tenancy
// --------------------------------------------------

func (r *AppointmentGormRepository) GetTenant(ctx context.Context, id uint) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := r.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		return nil, translate(err)
	}
	return &tenant, nil
}

func (r *AppointmentGormRepository) GetBranch(ctx context.Context, tenantID, branchID uint) (*models.Branch, error) {
	var branch models.Branch
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", branchID, tenantID).
		First(&branch).Error; err != nil {
		return nil, translate(err)
	}
	return &branch, nil
}

func (r *AppointmentGormRepository) GetBarber(ctx context.Context, tenantID, barberID uint) (*models.User, error) {
	var barber models.User
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", barberID, tenantID).
		First(&barber).Error; err != nil {
		return nil, translate(err)
	}
	return &barber, nil
}

// --------------------------------------------------
// Service
// --------------------------------------------------

func (r *AppointmentGormRepository) GetService(ctx context.Context, tenantID, serviceID uint) (*models.Service, error) {
	var service models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND active = ?", serviceID, tenantID, true).
		First(&service).Error; err != nil {
		return nil, translate(err)
	}
	return &service, nil
}

// --------------------------------------------------
// Customer
// --------------------------------------------------

func (r *AppointmentGormRepository) GetCustomer(ctx context.Context, tenantID, customerID uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", customerID, tenantID).
		First(&customer).Error; err != nil {
		return nil, translate(err)
	}
	return &customer, nil
}

func (r *AppointmentGormRepository) GetOrCreateCustomer(
	ctx context.Context,
	tenantID uint,
	name string,
	phone string,
	email string,
) (*models.Customer, error) {

	customer := models.Customer{
		TenantID: tenantID,
		Phone:    phone,
	}

	if err := r.db.WithContext(ctx).
		Where(models.Customer{TenantID: tenantID, Phone: phone}).
		Attrs(models.Customer{Name: name, Email: email}).
		FirstOrCreate(&customer).Error; err != nil {
		return nil, err
	}

	return &customer, nil
}

// --------------------------------------------------
// Schedule
// --------------------------------------------------

func (r *AppointmentGormRepository) ListWorkingHours(ctx context.Context, branchID uint) ([]models.WorkingHour, error) {
	var hours []models.WorkingHour
	if err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("week_day ASC").
		Find(&hours).Error; err != nil {
		return nil, err
	}
	return hours, nil
}

func (r *AppointmentGormRepository) ListOverrides(
	ctx context.Context,
	branchID uint,
	from string,
	to string,
) ([]models.WorkingDayOverride, error) {

	var overrides []models.WorkingDayOverride
	if err := r.db.WithContext(ctx).
		Where("branch_id = ? AND work_date BETWEEN ? AND ?", branchID, from, to).
		Order("work_date ASC").
		Find(&overrides).Error; err != nil {
		return nil, err
	}
	return overrides, nil
}

// --------------------------------------------------
// Serialization
// --------------------------------------------------

func (r *AppointmentGormRepository) WithBarberLock(
	ctx context.Context,
	barberID uint,
	fn func(tx domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var barber models.User
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&barber, barberID).Error; err != nil {
			return translate(err)
		}

		return fn(&AppointmentGormRepository{db: tx})
	})
}

// --------------------------------------------------
// Locks
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateLock(ctx context.Context, lock *models.AppointmentLock) error {
	return r.db.WithContext(ctx).Create(lock).Error
}

func (r *AppointmentGormRepository) GetLock(
	ctx context.Context,
	tenantID uint,
	branchID uint,
	lockID string,
) (*models.AppointmentLock, error) {

	var lock models.AppointmentLock
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ? AND branch_id = ?", lockID, tenantID, branchID).
		First(&lock).Error; err != nil {
		return nil, translate(err)
	}
	return &lock, nil
}

func (r *AppointmentGormRepository) UpdateLock(ctx context.Context, lock *models.AppointmentLock) error {
	return r.db.WithContext(ctx).Save(lock).Error
}

func (r *AppointmentGormRepository) ListLiveLocks(
	ctx context.Context,
	barberID uint,
	window schedule.Interval,
	now time.Time,
) ([]models.AppointmentLock, error) {

	var locks []models.AppointmentLock
	if err := r.db.WithContext(ctx).
		Where(
			"barber_id = ? AND is_active = ? AND expires_at > ? AND start_time < ? AND end_time > ?",
			barberID, true, now, window.End, window.Start,
		).
		Order("start_time ASC").
		Find(&locks).Error; err != nil {
		return nil, err
	}
	return locks, nil
}

func (r *AppointmentGormRepository) DeactivateExpiredLocks(
	ctx context.Context,
	now time.Time,
) ([]models.AppointmentLock, error) {

	var locks []models.AppointmentLock
	if err := r.db.WithContext(ctx).
		Model(&locks).
		Clauses(clause.Returning{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Updates(map[string]any{
			"is_active":   false,
			"released_at": now,
		}).Error; err != nil {
		return nil, err
	}
	return locks, nil
}

// --------------------------------------------------
// Appointment
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateAppointment(ctx context.Context, ap *models.Appointment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(ap).Error
}

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	tenantID uint,
	appointmentID uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.db.WithContext(ctx).
		Preload("Barber").
		Preload("Customer").
		Preload("Service").
		Where("id = ? AND tenant_id = ?", appointmentID, tenantID).
		First(&ap).Error; err != nil {
		return nil, translate(err)
	}
	return &ap, nil
}

func (r *AppointmentGormRepository) UpdateAppointment(ctx context.Context, ap *models.Appointment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(ap).Error
}

func (r *AppointmentGormRepository) ListOccupyingAppointments(
	ctx context.Context,
	barberID uint,
	window schedule.Interval,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Where(
			"barber_id = ? AND status <> ? AND start_time < ? AND end_time > ?",
			barberID, string(domain.StatusCancelled), window.End, window.Start,
		).
		Order("start_time ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	tenantID uint,
	branchID uint,
	barberID uint,
	from time.Time,
	to time.Time,
) ([]models.Appointment, error) {

	q := r.db.WithContext(ctx).
		Preload("Barber").
		Preload("Customer").
		Preload("Service").
		Where("tenant_id = ? AND start_time >= ? AND start_time < ?", tenantID, from, to)

	if branchID != 0 {
		q = q.Where("branch_id = ?", branchID)
	}
	if barberID != 0 {
		q = q.Where("barber_id = ?", barberID)
	}

	var apps []models.Appointment
	if err := q.Order("start_time ASC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}
