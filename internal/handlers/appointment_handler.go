package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	ucAppointment "github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

// AppointmentHandler is the staff agenda: listing, booking on behalf of a
// customer and moving appointments through their lifecycle.
type AppointmentHandler struct {
	byDate   *ucAppointment.ListAppointmentsByDate
	byMonth  *ucAppointment.ListAppointmentsByMonth
	commit   *ucAppointment.CommitAppointment
	start    *ucAppointment.StartAppointment
	complete *ucAppointment.CompleteAppointment
	cancel   *ucAppointment.CancelAppointment
	checkout *ucAppointment.CreateCheckout
}

func NewAppointmentHandler(
	byDate *ucAppointment.ListAppointmentsByDate,
	byMonth *ucAppointment.ListAppointmentsByMonth,
	commit *ucAppointment.CommitAppointment,
	start *ucAppointment.StartAppointment,
	complete *ucAppointment.CompleteAppointment,
	cancel *ucAppointment.CancelAppointment,
	checkout *ucAppointment.CreateCheckout,
) *AppointmentHandler {
	return &AppointmentHandler{
		byDate:   byDate,
		byMonth:  byMonth,
		commit:   commit,
		start:    start,
		complete: complete,
		cancel:   cancel,
		checkout: checkout,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type StaffCommitRequest struct {
	BranchID uint `json:"branch_id" binding:"required"`
	dto.CommitRequest
}

// ======================================================
// HELPERS
// ======================================================

func actor(c *gin.Context) ucAppointment.Actor {
	return ucAppointment.Actor{
		TenantID: tenantID(c),
		UserID:   userID(c),
		Role:     c.GetString(middleware.ContextUserRole),
	}
}

func agendaFilter(c *gin.Context) (ucAppointment.AgendaFilter, bool) {
	branchID, ok := uintQuery(c, "branch_id")
	if !ok {
		return ucAppointment.AgendaFilter{}, false
	}
	barberID, ok := uintQuery(c, "barber_id")
	if !ok {
		return ucAppointment.AgendaFilter{}, false
	}
	return ucAppointment.AgendaFilter{BranchID: branchID, BarberID: barberID}, true
}

// ======================================================
// LIST
// ======================================================

func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	filter, ok := agendaFilter(c)
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "Informe a data (YYYY-MM-DD).")
		return
	}

	out, err := h.byDate.Execute(c.Request.Context(), actor(c), filter, date)
	if err != nil {
		writeBusinessError(c, err, "failed_to_list_appointments")
		return
	}

	c.JSON(http.StatusOK, out)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	filter, ok := agendaFilter(c)
	if !ok {
		return
	}

	year, err1 := strconv.Atoi(c.Query("year"))
	month, err2 := strconv.Atoi(c.Query("month"))
	if err1 != nil || err2 != nil {
		writeBusinessError(c, httperr.ErrBusiness("invalid_month"), "failed_to_list_appointments")
		return
	}

	out, err := h.byMonth.Execute(c.Request.Context(), actor(c), filter, year, month)
	if err != nil {
		writeBusinessError(c, err, "failed_to_list_appointments")
		return
	}

	c.JSON(http.StatusOK, out)
}

// ======================================================
// CREATE
// ======================================================

// Create books on behalf of a customer. Barbers can only book themselves.
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req StaffCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	a := actor(c)
	if a.Role == models.RoleBarber && req.BarberID != a.UserID {
		httperr.Forbidden(c, "forbidden", "Barbeiros só podem agendar na própria agenda.")
		return
	}

	ap, err := h.commit.Execute(c.Request.Context(), commitInput(a.TenantID, req.BranchID, req.CommitRequest, &a.UserID))
	if err != nil {
		writeBusinessError(c, err, "failed_to_create_appointment")
		return
	}

	c.JSON(http.StatusCreated, dto.FromAppointment(*ap))
}

// ======================================================
// LIFECYCLE
// ======================================================

type appointmentAction func(c *gin.Context, a ucAppointment.Actor, id uint) (*models.Appointment, error)

func (h *AppointmentHandler) run(c *gin.Context, fallback string, do appointmentAction) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	ap, err := do(c, actor(c), id)
	if err != nil {
		writeBusinessError(c, err, fallback)
		return
	}

	c.JSON(http.StatusOK, dto.FromAppointment(*ap))
}

func (h *AppointmentHandler) Start(c *gin.Context) {
	h.run(c, "failed_to_start_appointment", func(c *gin.Context, a ucAppointment.Actor, id uint) (*models.Appointment, error) {
		return h.start.Execute(c.Request.Context(), a, id)
	})
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.run(c, "failed_to_complete_appointment", func(c *gin.Context, a ucAppointment.Actor, id uint) (*models.Appointment, error) {
		return h.complete.Execute(c.Request.Context(), a, id)
	})
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	h.run(c, "failed_to_cancel_appointment", func(c *gin.Context, a ucAppointment.Actor, id uint) (*models.Appointment, error) {
		return h.cancel.Execute(c.Request.Context(), a, id)
	})
}

// Checkout attaches a payment link to the appointment.
func (h *AppointmentHandler) Checkout(c *gin.Context) {
	h.run(c, "failed_to_create_checkout", func(c *gin.Context, a ucAppointment.Actor, id uint) (*models.Appointment, error) {
		return h.checkout.Execute(c.Request.Context(), a, id)
	})
}
