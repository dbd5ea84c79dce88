package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
	ucAppointment "github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
	ucLock "github.com/BruksfildServices01/barber-booking/internal/usecase/lock"
)

const maxOverrideRangeDays = 92

// ======================================================
// HANDLER
// ======================================================

// PublicHandler serves the booking surface used by customers: schedule
// lookups, availability, locks and appointment commit.
type PublicHandler struct {
	repo         domain.Repository
	availability *ucAppointment.GetAvailability
	acquire      *ucLock.AcquireLock
	release      *ucLock.ReleaseLock
	commit       *ucAppointment.CommitAppointment
}

func NewPublicHandler(
	repo domain.Repository,
	availability *ucAppointment.GetAvailability,
	acquire *ucLock.AcquireLock,
	release *ucLock.ReleaseLock,
	commit *ucAppointment.CommitAppointment,
) *PublicHandler {
	return &PublicHandler{
		repo:         repo,
		availability: availability,
		acquire:      acquire,
		release:      release,
		commit:       commit,
	}
}

func (h *PublicHandler) branchPath(c *gin.Context) (uint, uint, bool) {
	tenantID, ok := uintParam(c, "tenantId")
	if !ok {
		return 0, 0, false
	}
	branchID, ok := uintParam(c, "branchId")
	if !ok {
		return 0, 0, false
	}
	return tenantID, branchID, true
}

func (h *PublicHandler) loadBranch(c *gin.Context, tenantID, branchID uint) (*models.Tenant, *models.Branch, bool) {
	ctx := c.Request.Context()

	tenant, err := h.repo.GetTenant(ctx, tenantID)
	if err != nil {
		writeBusinessError(c, domain.NotFound(err, "tenant_not_found"), "failed_to_get_tenant")
		return nil, nil, false
	}

	branch, err := h.repo.GetBranch(ctx, tenantID, branchID)
	if err != nil {
		writeBusinessError(c, domain.NotFound(err, "branch_not_found"), "failed_to_get_branch")
		return nil, nil, false
	}

	return tenant, branch, true
}

// ======================================================
// WORKING HOURS / OVERRIDES
// ======================================================

func (h *PublicHandler) WorkingHours(c *gin.Context) {
	tenantID, branchID, ok := h.branchPath(c)
	if !ok {
		return
	}

	tenant, branch, ok := h.loadBranch(c, tenantID, branchID)
	if !ok {
		return
	}

	rows, err := h.repo.ListWorkingHours(c.Request.Context(), branch.ID)
	if err != nil {
		writeBusinessError(c, err, "failed_to_get_working_hours")
		return
	}

	out := make([]dto.WorkingHourDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.FromWorkingHour(r))
	}

	c.JSON(http.StatusOK, dto.WorkingHoursResponse{
		BranchID: branch.ID,
		Timezone: timezone.Location(branch.EffectiveTimezone(*tenant)).String(),
		Data:     out,
		Total:    len(out),
	})
}

func (h *PublicHandler) Overrides(c *gin.Context) {
	tenantID, branchID, ok := h.branchPath(c)
	if !ok {
		return
	}

	tenant, branch, ok := h.loadBranch(c, tenantID, branchID)
	if !ok {
		return
	}

	loc := timezone.Location(branch.EffectiveTimezone(*tenant))
	from, to, ok := overrideRange(c, loc)
	if !ok {
		return
	}

	rows, err := h.repo.ListOverrides(c.Request.Context(), branch.ID, from, to)
	if err != nil {
		writeBusinessError(c, err, "failed_to_get_overrides")
		return
	}

	out := make([]dto.OverrideDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.FromOverride(r))
	}

	c.JSON(http.StatusOK, dto.OverridesResponse{
		BranchID: branch.ID,
		Data:     out,
		Total:    len(out),
	})
}

// overrideRange reads start_date/end_date. Without them it covers the next
// 30 days; a single bound covers that one date.
func overrideRange(c *gin.Context, loc *time.Location) (string, string, bool) {
	startStr := c.Query("start_date")
	endStr := c.Query("end_date")

	if startStr == "" && endStr == "" {
		today := time.Now().In(loc)
		return today.Format(schedule.DateLayout), today.AddDate(0, 0, 30).Format(schedule.DateLayout), true
	}
	if startStr == "" {
		startStr = endStr
	}
	if endStr == "" {
		endStr = startStr
	}

	start, err1 := schedule.ParseDate(startStr, loc)
	end, err2 := schedule.ParseDate(endStr, loc)
	if err1 != nil || err2 != nil {
		httperr.BadRequest(c, "invalid_date", "Data inválida (use YYYY-MM-DD).")
		return "", "", false
	}
	if end.Before(start) || end.Sub(start) > maxOverrideRangeDays*24*time.Hour {
		httperr.BadRequest(c, "invalid_date_range", "Intervalo de datas inválido.")
		return "", "", false
	}

	return startStr, endStr, true
}

// ======================================================
// SERVICES
// ======================================================

// Service exposes one active service so guests can learn its duration.
func (h *PublicHandler) Service(c *gin.Context) {
	tenantID, ok := uintParam(c, "tenantId")
	if !ok {
		return
	}
	serviceID, ok := uintParam(c, "serviceId")
	if !ok {
		return
	}

	svc, err := h.repo.GetService(c.Request.Context(), tenantID, serviceID)
	if err != nil {
		writeBusinessError(c, domain.NotFound(err, "service_not_found"), "failed_to_get_service")
		return
	}

	c.JSON(http.StatusOK, dto.FromService(*svc))
}

// ======================================================
// AVAILABILITY
// ======================================================

func (h *PublicHandler) Availability(c *gin.Context) {
	tenantID, branchID, ok := h.branchPath(c)
	if !ok {
		return
	}
	barberID, ok := uintParam(c, "barberId")
	if !ok {
		return
	}
	serviceID, ok := uintQuery(c, "service_id")
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		httperr.BadRequest(c, "missing_date", "Informe a data (YYYY-MM-DD).")
		return
	}

	out, err := h.availability.Execute(c.Request.Context(), ucAppointment.AvailabilityInput{
		TenantID:  tenantID,
		BranchID:  branchID,
		BarberID:  barberID,
		Date:      date,
		ServiceID: serviceID,
	})
	if err != nil {
		writeBusinessError(c, err, "failed_to_get_availability")
		return
	}

	c.JSON(http.StatusOK, out)
}

// ======================================================
// LOCKS
// ======================================================

func (h *PublicHandler) AcquireLock(c *gin.Context) {
	tenantID, branchID, ok := h.branchPath(c)
	if !ok {
		return
	}

	var req dto.LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	lock, err := h.acquire.Execute(c.Request.Context(), ucLock.AcquireLockInput{
		TenantID:   tenantID,
		BranchID:   branchID,
		BarberID:   req.BarberID,
		CustomerID: req.CustomerID,
		Start:      req.StartTime,
		End:        req.EndTime,
	})
	if err != nil {
		writeBusinessError(c, err, "failed_to_acquire_lock")
		return
	}

	c.JSON(http.StatusCreated, dto.FromLock(*lock))
}

func (h *PublicHandler) ReleaseLock(c *gin.Context) {
	tenantID, branchID, ok := h.branchPath(c)
	if !ok {
		return
	}

	lockID := c.Param("lockId")
	if _, err := uuid.Parse(lockID); err != nil {
		writeBusinessError(c, httperr.ErrBusiness("lock_not_found"), "failed_to_release_lock")
		return
	}

	if err := h.release.Execute(c.Request.Context(), tenantID, branchID, lockID); err != nil {
		writeBusinessError(c, err, "failed_to_release_lock")
		return
	}

	c.Status(http.StatusNoContent)
}

// ======================================================
// COMMIT
// ======================================================

func (h *PublicHandler) Commit(c *gin.Context) {
	tenantID, branchID, ok := h.branchPath(c)
	if !ok {
		return
	}

	var req dto.CommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	ap, err := h.commit.Execute(c.Request.Context(), commitInput(tenantID, branchID, req, nil))
	if err != nil {
		writeBusinessError(c, err, "failed_to_create_appointment")
		return
	}

	c.JSON(http.StatusCreated, dto.FromAppointment(*ap))
}

func commitInput(tenantID, branchID uint, req dto.CommitRequest, actorID *uint) ucAppointment.CommitAppointmentInput {
	in := ucAppointment.CommitAppointmentInput{
		TenantID:   tenantID,
		BranchID:   branchID,
		BarberID:   req.BarberID,
		ServiceID:  req.ServiceID,
		Start:      req.StartTime,
		CustomerID: req.CustomerID,
		LockID:     req.LockID,
		Notes:      req.Notes,
		ActorID:    actorID,
	}
	if req.Customer != nil {
		in.Customer = &ucAppointment.CustomerData{
			Name:  req.Customer.Name,
			Phone: req.Customer.Phone,
			Email: req.Customer.Email,
		}
	}
	return in
}
