package dto

import (
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

func FromWorkingHour(w models.WorkingHour) WorkingHourDTO {
	return WorkingHourDTO{
		WeekDay:   w.WeekDay,
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
		IsClosed:  w.IsClosed,
	}
}

func FromOverride(o models.WorkingDayOverride) OverrideDTO {
	return OverrideDTO{
		ID:        o.ID,
		WorkDate:  o.Date(),
		StartTime: o.StartTime,
		EndTime:   o.EndTime,
		IsClosed:  o.IsClosed,
		Reason:    o.Reason,
	}
}

func FromLock(l models.AppointmentLock) LockDTO {
	return LockDTO{
		ID:         l.ID,
		TenantID:   l.TenantID,
		BranchID:   l.BranchID,
		BarberID:   l.BarberID,
		CustomerID: l.CustomerID,
		StartTime:  l.StartTime.UTC(),
		EndTime:    l.EndTime.UTC(),
		ExpiresAt:  l.ExpiresAt.UTC(),
		IsActive:   l.IsActive,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func FromAppointment(ap models.Appointment) AppointmentDTO {
	return AppointmentDTO{
		ID:        ap.ID,
		TenantID:  ap.TenantID,
		BranchID:  ap.BranchID,
		StartTime: ap.StartTime.UTC(),
		EndTime:   ap.EndTime.UTC(),
		Status:    ap.Status,
		Notes:     ap.Notes,

		BarberID:   ap.BarberID,
		BarberName: ap.Barber.Name,

		CustomerID:    ap.CustomerID,
		CustomerName:  ap.Customer.Name,
		CustomerPhone: ap.Customer.Phone,

		ServiceID:       ap.ServiceID,
		ServiceName:     ap.Service.Name,
		ServicePrice:    ap.Service.Price,
		ServiceDuration: ap.Service.DurationMin,

		PaymentURL: ap.PaymentURL,
	}
}

func FromAppointments(list []models.Appointment) AppointmentsResponse {
	out := make([]AppointmentDTO, 0, len(list))
	for _, ap := range list {
		out = append(out, FromAppointment(ap))
	}
	return AppointmentsResponse{Data: out, Total: len(out)}
}

func FromUser(u models.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		TenantID:  u.TenantID,
		BranchID:  u.BranchID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
	}
}

func FromService(s models.Service) ServiceDTO {
	return ServiceDTO{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		DurationMin: s.DurationMin,
		Price:       s.Price,
		Category:    s.Category,
		Active:      s.Active,
	}
}
