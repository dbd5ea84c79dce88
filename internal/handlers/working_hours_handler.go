package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// WorkingHoursHandler edits a branch's weekly template and its per-date
// overrides. Cached availability picks the change up when its entries expire.
type WorkingHoursHandler struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewWorkingHoursHandler(repo domain.Repository, d *audit.Dispatcher) *WorkingHoursHandler {
	return &WorkingHoursHandler{repo: repo, audit: d}
}

type WorkingDayConfig struct {
	WeekDay   int    `json:"week_day" binding:"min=0,max=6"`
	IsClosed  bool   `json:"is_closed"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type WorkingHoursUpdateRequest struct {
	Days []WorkingDayConfig `json:"days" binding:"required,dive"`
}

type OverrideRequest struct {
	WorkDate  string `json:"work_date" binding:"required"`
	IsClosed  bool   `json:"is_closed"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason"`
}

// branch resolves :branchId within the caller's tenant together with the
// zone its dates are read in.
func (h *WorkingHoursHandler) branch(c *gin.Context) (*models.Branch, *time.Location, bool) {
	id, ok := uintParam(c, "branchId")
	if !ok {
		return nil, nil, false
	}

	ctx := c.Request.Context()
	b, err := h.repo.GetBranch(ctx, tenantID(c), id)
	if err != nil {
		writeBusinessError(c, domain.NotFound(err, "branch_not_found"), "failed_to_get_branch")
		return nil, nil, false
	}
	t, err := h.repo.GetTenant(ctx, b.TenantID)
	if err != nil {
		writeBusinessError(c, domain.NotFound(err, "tenant_not_found"), "failed_to_get_tenant")
		return nil, nil, false
	}
	return b, timezone.Location(b.EffectiveTimezone(*t)), true
}

// validClockRange checks a pair of HH:MM values with start before end.
func validClockRange(start, end string) bool {
	s, err1 := time.Parse(schedule.ClockLayout, strings.TrimSpace(start))
	e, err2 := time.Parse(schedule.ClockLayout, strings.TrimSpace(end))
	return err1 == nil && err2 == nil && s.Before(e)
}

// ======================================================
// WEEKLY TEMPLATE
// ======================================================

func (h *WorkingHoursHandler) Get(c *gin.Context) {
	b, loc, ok := h.branch(c)
	if !ok {
		return
	}

	rows, err := h.repo.ListWorkingHours(c.Request.Context(), b.ID)
	if err != nil {
		httperr.Internal(c, "failed_to_get_working_hours", "Erro ao buscar horários.")
		return
	}

	c.JSON(http.StatusOK, workingHoursResponse(b.ID, loc, rows))
}

func workingHoursResponse(branchID uint, loc *time.Location, rows []models.WorkingHour) dto.WorkingHoursResponse {
	sort.Slice(rows, func(i, j int) bool { return rows[i].WeekDay < rows[j].WeekDay })

	out := make([]dto.WorkingHourDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.FromWorkingHour(r))
	}
	return dto.WorkingHoursResponse{
		BranchID: branchID,
		Timezone: loc.String(),
		Data:     out,
		Total:    len(out),
	}
}

// Update replaces the whole weekly template. Weekdays left out become
// closed because a missing row means the branch does not open.
func (h *WorkingHoursHandler) Update(c *gin.Context) {
	b, loc, ok := h.branch(c)
	if !ok {
		return
	}

	var req WorkingHoursUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	seen := map[int]bool{}
	rows := make([]models.WorkingHour, 0, len(req.Days))
	for _, d := range req.Days {
		if seen[d.WeekDay] {
			httperr.BadRequest(c, "duplicate_week_day", "Dia da semana repetido.")
			return
		}
		seen[d.WeekDay] = true

		if !d.IsClosed && !validClockRange(d.StartTime, d.EndTime) {
			writeBusinessError(c, httperr.ErrBusiness("invalid_time"), "failed_to_save_working_hours")
			return
		}

		rows = append(rows, models.WorkingHour{
			BranchID:  b.ID,
			WeekDay:   d.WeekDay,
			StartTime: strings.TrimSpace(d.StartTime),
			EndTime:   strings.TrimSpace(d.EndTime),
			IsClosed:  d.IsClosed,
		})
	}

	if err := h.repo.ReplaceWorkingHours(c.Request.Context(), b.ID, rows); err != nil {
		httperr.Internal(c, "failed_to_save_working_hours", "Erro ao salvar horários.")
		return
	}

	h.dispatch(c, "working_hours_updated", "branch", uintString(b.ID), req)
	c.JSON(http.StatusOK, workingHoursResponse(b.ID, loc, rows))
}

// ======================================================
// OVERRIDES
// ======================================================

func (h *WorkingHoursHandler) ListOverrides(c *gin.Context) {
	b, loc, ok := h.branch(c)
	if !ok {
		return
	}

	from, to, ok := overrideRange(c, loc)
	if !ok {
		return
	}

	rows, err := h.repo.ListOverrides(c.Request.Context(), b.ID, from, to)
	if err != nil {
		httperr.Internal(c, "failed_to_get_overrides", "Erro ao buscar exceções.")
		return
	}

	out := make([]dto.OverrideDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.FromOverride(r))
	}
	c.JSON(http.StatusOK, dto.OverridesResponse{BranchID: b.ID, Data: out, Total: len(out)})
}

// PutOverride creates or replaces the override of one date.
func (h *WorkingHoursHandler) PutOverride(c *gin.Context) {
	b, _, ok := h.branch(c)
	if !ok {
		return
	}

	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	date, err := schedule.ParseDate(req.WorkDate, time.UTC)
	if err != nil {
		writeBusinessError(c, httperr.ErrBusiness("invalid_date"), "failed_to_save_override")
		return
	}
	if !req.IsClosed && !validClockRange(req.StartTime, req.EndTime) {
		writeBusinessError(c, httperr.ErrBusiness("invalid_time"), "failed_to_save_override")
		return
	}

	row := models.WorkingDayOverride{
		BranchID:  b.ID,
		WorkDate:  date,
		StartTime: strings.TrimSpace(req.StartTime),
		EndTime:   strings.TrimSpace(req.EndTime),
		IsClosed:  req.IsClosed,
		Reason:    strings.TrimSpace(req.Reason),
	}
	if row.IsClosed {
		row.StartTime, row.EndTime = "", ""
	}

	if err := h.repo.SaveOverride(c.Request.Context(), &row); err != nil {
		httperr.Internal(c, "failed_to_save_override", "Erro ao salvar exceção.")
		return
	}

	h.dispatch(c, "override_saved", "branch", uintString(b.ID), req)
	c.JSON(http.StatusOK, dto.FromOverride(row))
}

func (h *WorkingHoursHandler) DeleteOverride(c *gin.Context) {
	b, _, ok := h.branch(c)
	if !ok {
		return
	}
	id, ok := uintParam(c, "overrideId")
	if !ok {
		return
	}

	if err := h.repo.DeleteOverride(c.Request.Context(), b.ID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			httperr.NotFound(c, "override_not_found", "Exceção não encontrada.")
			return
		}
		httperr.Internal(c, "failed_to_delete_override", "Erro ao remover exceção.")
		return
	}

	h.dispatch(c, "override_deleted", "working_day_override", uintString(id), nil)
	c.Status(http.StatusNoContent)
}

func (h *WorkingHoursHandler) dispatch(c *gin.Context, action, entity, id string, meta any) {
	uid := userID(c)
	h.audit.Dispatch(audit.Event{
		TenantID: tenantID(c),
		UserID:   &uid,
		Action:   action,
		Entity:   entity,
		EntityID: id,
		Metadata: meta,
	})
}
