package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

// --------------------------------------------------
// Branches and staff
// --------------------------------------------------

func (r *AppointmentGormRepository) ListBranches(ctx context.Context, tenantID uint) ([]models.Branch, error) {
	var branches []models.Branch
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("id").
		Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

func (r *AppointmentGormRepository) CreateBranch(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Create(branch).Error
}

func (r *AppointmentGormRepository) SaveBranch(ctx context.Context, branch *models.Branch) error {
	return r.db.WithContext(ctx).Save(branch).Error
}

func (r *AppointmentGormRepository) ListStaff(ctx context.Context, tenantID, branchID uint) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND branch_id = ?", tenantID, branchID).
		Order("name").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *AppointmentGormRepository) CreateUser(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if httperr.IsUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	return err
}

// --------------------------------------------------
// Services
// --------------------------------------------------

func (r *AppointmentGormRepository) FindService(ctx context.Context, tenantID, serviceID uint) (*models.Service, error) {
	var service models.Service
	if err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", serviceID, tenantID).
		First(&service).Error; err != nil {
		return nil, translate(err)
	}
	return &service, nil
}

func (r *AppointmentGormRepository) ListServices(ctx context.Context, tenantID uint, includeInactive bool) ([]models.Service, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if !includeInactive {
		q = q.Where("active = ?", true)
	}

	var services []models.Service
	if err := q.Order("name").Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *AppointmentGormRepository) CreateService(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

// SaveService writes every column, so a service switched off stays off
// despite the column default.
func (r *AppointmentGormRepository) SaveService(ctx context.Context, service *models.Service) error {
	return r.db.WithContext(ctx).Save(service).Error
}

// --------------------------------------------------
// Customers
// --------------------------------------------------

func (r *AppointmentGormRepository) SearchCustomers(ctx context.Context, tenantID uint, term string, limit int) ([]models.Customer, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)

	if term = strings.TrimSpace(term); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("(LOWER(name) LIKE ? OR phone LIKE ?)", like, like)
	}

	var customers []models.Customer
	if err := q.Order("name").Limit(limit).Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

// --------------------------------------------------
// Schedule configuration
// --------------------------------------------------

func (r *AppointmentGormRepository) ReplaceWorkingHours(ctx context.Context, branchID uint, rows []models.WorkingHour) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("branch_id = ?", branchID).Delete(&models.WorkingHour{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		for i := range rows {
			rows[i].BranchID = branchID
		}
		return tx.Create(&rows).Error
	})
}

// SaveOverride relies on the (branch_id, work_date) unique index.
func (r *AppointmentGormRepository) SaveOverride(ctx context.Context, o *models.WorkingDayOverride) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "branch_id"}, {Name: "work_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"start_time", "end_time", "is_closed", "reason", "updated_at"}),
		}).
		Create(o).Error
}

func (r *AppointmentGormRepository) DeleteOverride(ctx context.Context, branchID, overrideID uint) error {
	res := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Delete(&models.WorkingDayOverride{}, overrideID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
