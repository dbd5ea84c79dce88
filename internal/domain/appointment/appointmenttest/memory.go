// Package appointmenttest provides an in-memory appointment.Repository for
// use-case tests.
package appointmenttest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type Memory struct {
	mu sync.Mutex

	Tenants      map[uint]models.Tenant
	Branches     map[uint]models.Branch
	Users        map[uint]models.User
	Services     map[uint]models.Service
	Customers    map[uint]models.Customer
	WorkingHours []models.WorkingHour
	Overrides    []models.WorkingDayOverride
	Locks        map[string]models.AppointmentLock
	Appointments map[uint]models.Appointment

	// FailCreateAppointment, when set, is returned by CreateAppointment.
	FailCreateAppointment error

	barberMu sync.Mutex
	barbers  map[uint]*sync.Mutex
	seq      uint
}

var _ domain.Repository = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		Tenants:      map[uint]models.Tenant{},
		Branches:     map[uint]models.Branch{},
		Users:        map[uint]models.User{},
		Services:     map[uint]models.Service{},
		Customers:    map[uint]models.Customer{},
		Locks:        map[string]models.AppointmentLock{},
		Appointments: map[uint]models.Appointment{},
		barbers:      map[uint]*sync.Mutex{},
	}
}

// Seed builds tenant 1, branch 1 (UTC), barber 1, service 1 (30 min),
// customer 1 and a 09:00-18:00 week.
func Seed() *Memory {
	m := NewMemory()
	branchID := uint(1)

	m.Tenants[1] = models.Tenant{ID: 1, Name: "Navalha", Slug: "navalha", Timezone: "UTC"}
	m.Branches[1] = models.Branch{ID: 1, TenantID: 1, Name: "Centro", Active: true}
	m.Users[1] = models.User{ID: 1, TenantID: 1, BranchID: &branchID, Name: "Rafa", Role: models.RoleBarber, Active: true}
	m.Services[1] = models.Service{ID: 1, TenantID: 1, Name: "Corte", DurationMin: 30, Price: 50, Active: true}
	m.Customers[1] = models.Customer{ID: 1, TenantID: 1, Name: "Ana", Phone: "+5511999990001"}
	for d := 0; d < 7; d++ {
		m.WorkingHours = append(m.WorkingHours, models.WorkingHour{
			ID: uint(d + 1), BranchID: 1, WeekDay: d, StartTime: "09:00", EndTime: "18:00",
		})
	}
	m.seq = 100
	return m
}

func (m *Memory) next() uint {
	m.seq++
	return m.seq
}

// --------------------------------------------------
// Tenancy
// --------------------------------------------------

func (m *Memory) GetTenant(_ context.Context, id uint) (*models.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.Tenants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (m *Memory) GetBranch(_ context.Context, tenantID, branchID uint) (*models.Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.Branches[branchID]
	if !ok || b.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (m *Memory) GetBarber(_ context.Context, tenantID, barberID uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.Users[barberID]
	if !ok || u.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) ListBranches(_ context.Context, tenantID uint) ([]models.Branch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Branch{}
	for _, b := range m.Branches {
		if b.TenantID == tenantID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateBranch(_ context.Context, branch *models.Branch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	branch.ID = m.next()
	m.Branches[branch.ID] = *branch
	return nil
}

func (m *Memory) SaveBranch(_ context.Context, branch *models.Branch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Branches[branch.ID] = *branch
	return nil
}

func (m *Memory) ListStaff(_ context.Context, tenantID, branchID uint) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.User{}
	for _, u := range m.Users {
		if u.TenantID == tenantID && u.BranchID != nil && *u.BranchID == branchID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.Users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrDuplicate
		}
	}
	user.ID = m.next()
	m.Users[user.ID] = *user
	return nil
}

// --------------------------------------------------
// Service
// --------------------------------------------------

func (m *Memory) GetService(_ context.Context, tenantID, serviceID uint) (*models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Services[serviceID]
	if !ok || s.TenantID != tenantID || !s.Active {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *Memory) FindService(_ context.Context, tenantID, serviceID uint) (*models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.Services[serviceID]
	if !ok || s.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *Memory) ListServices(_ context.Context, tenantID uint, includeInactive bool) ([]models.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Service{}
	for _, s := range m.Services {
		if s.TenantID == tenantID && (includeInactive || s.Active) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) CreateService(_ context.Context, service *models.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	service.ID = m.next()
	m.Services[service.ID] = *service
	return nil
}

func (m *Memory) SaveService(_ context.Context, service *models.Service) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Services[service.ID] = *service
	return nil
}

// --------------------------------------------------
// Customer
// --------------------------------------------------

func (m *Memory) GetCustomer(_ context.Context, tenantID, customerID uint) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.Customers[customerID]
	if !ok || c.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *Memory) GetOrCreateCustomer(_ context.Context, tenantID uint, name, phone, email string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.Customers {
		if c.TenantID == tenantID && c.Phone == phone {
			return &c, nil
		}
	}

	c := models.Customer{ID: m.next(), TenantID: tenantID, Name: name, Phone: phone, Email: email}
	m.Customers[c.ID] = c
	return &c, nil
}

func (m *Memory) SearchCustomers(_ context.Context, tenantID uint, term string, limit int) ([]models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	term = strings.ToLower(strings.TrimSpace(term))
	out := []models.Customer{}
	for _, c := range m.Customers {
		if c.TenantID != tenantID {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(c.Name), term) && !strings.Contains(c.Phone, term) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --------------------------------------------------
// Schedule
// --------------------------------------------------

func (m *Memory) ListWorkingHours(_ context.Context, branchID uint) ([]models.WorkingHour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.WorkingHour{}
	for _, w := range m.WorkingHours {
		if w.BranchID == branchID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *Memory) ListOverrides(_ context.Context, branchID uint, from, to string) ([]models.WorkingDayOverride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.WorkingDayOverride{}
	for _, o := range m.Overrides {
		d := o.Date()
		if o.BranchID == branchID && d >= from && d <= to {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkDate.Before(out[j].WorkDate) })
	return out, nil
}

func (m *Memory) ReplaceWorkingHours(_ context.Context, branchID uint, rows []models.WorkingHour) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := []models.WorkingHour{}
	for _, w := range m.WorkingHours {
		if w.BranchID != branchID {
			kept = append(kept, w)
		}
	}
	for i := range rows {
		rows[i].ID = m.next()
		rows[i].BranchID = branchID
		kept = append(kept, rows[i])
	}
	m.WorkingHours = kept
	return nil
}

func (m *Memory) SaveOverride(_ context.Context, o *models.WorkingDayOverride) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	o.UpdatedAt = now
	for i, cur := range m.Overrides {
		if cur.BranchID == o.BranchID && cur.Date() == o.Date() {
			o.ID, o.CreatedAt = cur.ID, cur.CreatedAt
			m.Overrides[i] = *o
			return nil
		}
	}
	o.ID, o.CreatedAt = m.next(), now
	m.Overrides = append(m.Overrides, *o)
	return nil
}

func (m *Memory) DeleteOverride(_ context.Context, branchID, overrideID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, o := range m.Overrides {
		if o.ID == overrideID && o.BranchID == branchID {
			m.Overrides = append(m.Overrides[:i], m.Overrides[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// --------------------------------------------------
// Serialization
// --------------------------------------------------

func (m *Memory) WithBarberLock(_ context.Context, barberID uint, fn func(tx domain.Repository) error) error {
	m.barberMu.Lock()
	l, ok := m.barbers[barberID]
	if !ok {
		l = &sync.Mutex{}
		m.barbers[barberID] = l
	}
	m.barberMu.Unlock()

	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	_, ok = m.Users[barberID]
	m.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	return fn(m)
}

// --------------------------------------------------
// Locks
// --------------------------------------------------

func (m *Memory) CreateLock(_ context.Context, lock *models.AppointmentLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if lock.ID == "" {
		lock.ID = uuid.NewString()
	}
	now := time.Now()
	lock.CreatedAt, lock.UpdatedAt = now, now
	m.Locks[lock.ID] = *lock
	return nil
}

func (m *Memory) GetLock(_ context.Context, tenantID, branchID uint, lockID string) (*models.AppointmentLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.Locks[lockID]
	if !ok || l.TenantID != tenantID || l.BranchID != branchID {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (m *Memory) UpdateLock(_ context.Context, lock *models.AppointmentLock) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock.UpdatedAt = time.Now()
	m.Locks[lock.ID] = *lock
	return nil
}

func (m *Memory) ListLiveLocks(_ context.Context, barberID uint, window schedule.Interval, now time.Time) ([]models.AppointmentLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.AppointmentLock{}
	for _, l := range m.Locks {
		if l.BarberID == barberID && l.Live(now) && l.StartTime.Before(window.End) && l.EndTime.After(window.Start) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *Memory) DeactivateExpiredLocks(_ context.Context, now time.Time) ([]models.AppointmentLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.AppointmentLock{}
	for id, l := range m.Locks {
		if l.IsActive && !l.ExpiresAt.After(now) {
			l.IsActive = false
			l.ReleasedAt = &now
			m.Locks[id] = l
			out = append(out, l)
		}
	}
	return out, nil
}

// --------------------------------------------------
// Appointments
// --------------------------------------------------

func (m *Memory) CreateAppointment(_ context.Context, ap *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreateAppointment != nil {
		return m.FailCreateAppointment
	}

	ap.ID = m.next()
	now := time.Now()
	ap.CreatedAt, ap.UpdatedAt = now, now
	m.Appointments[ap.ID] = *ap
	return nil
}

func (m *Memory) GetAppointment(_ context.Context, tenantID, appointmentID uint) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ap, ok := m.Appointments[appointmentID]
	if !ok || ap.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	m.fill(&ap)
	return &ap, nil
}

func (m *Memory) UpdateAppointment(_ context.Context, ap *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ap.UpdatedAt = time.Now()
	m.Appointments[ap.ID] = *ap
	return nil
}

func (m *Memory) ListOccupyingAppointments(_ context.Context, barberID uint, window schedule.Interval) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Appointment{}
	for _, ap := range m.Appointments {
		if ap.BarberID == barberID && domain.Status(ap.Status).Occupies() &&
			ap.StartTime.Before(window.End) && ap.EndTime.After(window.Start) {
			out = append(out, ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *Memory) ListAppointmentsForPeriod(_ context.Context, tenantID, branchID, barberID uint, from, to time.Time) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []models.Appointment{}
	for _, ap := range m.Appointments {
		if ap.TenantID != tenantID || ap.StartTime.Before(from) || !ap.StartTime.Before(to) {
			continue
		}
		if branchID != 0 && ap.BranchID != branchID {
			continue
		}
		if barberID != 0 && ap.BarberID != barberID {
			continue
		}
		m.fill(&ap)
		out = append(out, ap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// fill mimics gorm preloads; mu must be held.
func (m *Memory) fill(ap *models.Appointment) {
	ap.Barber = m.Users[ap.BarberID]
	ap.Customer = m.Customers[ap.CustomerID]
	ap.Service = m.Services[ap.ServiceID]
}

// LockCount returns how many locks are stored, in any state.
func (m *Memory) LockCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Locks)
}
