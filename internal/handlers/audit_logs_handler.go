package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/domain/schedule"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// ======================================================
// HANDLER
// ======================================================

type AuditLogsHandler struct {
	db *gorm.DB
}

func NewAuditLogsHandler(db *gorm.DB) *AuditLogsHandler {
	return &AuditLogsHandler{db: db}
}

// List pages through the tenant's audit trail, newest first. from/to are
// calendar dates in the tenant timezone; entity_id follows one lock or
// appointment through its lifecycle.
func (h *AuditLogsHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	tid := tenantID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var tenant models.Tenant
	if err := h.db.WithContext(ctx).First(&tenant, tid).Error; err != nil {
		httperr.NotFound(c, "tenant_not_found", "Empresa não encontrada.")
		return
	}
	loc := timezone.Location(tenant.Timezone)

	q := h.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Where("tenant_id = ?", tid)

	for column, value := range map[string]string{
		"action":    c.Query("action"),
		"entity":    c.Query("entity"),
		"entity_id": c.Query("entity_id"),
	} {
		if value != "" {
			q = q.Where(column+" = ?", value)
		}
	}

	if raw := c.Query("from"); raw != "" {
		from, err := schedule.ParseDate(raw, loc)
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Data inicial inválida (use YYYY-MM-DD).")
			return
		}
		q = q.Where("created_at >= ?", from)
	}

	if raw := c.Query("to"); raw != "" {
		to, err := schedule.ParseDate(raw, loc)
		if err != nil {
			httperr.BadRequest(c, "invalid_date", "Data final inválida (use YYYY-MM-DD).")
			return
		}
		q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		httperr.Internal(c, "audit_count_failed", "Erro ao contar logs.")
		return
	}

	var logs []models.AuditLog
	if err := q.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&logs).Error; err != nil {

		httperr.Internal(c, "audit_list_failed", "Erro ao listar logs.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":     page,
		"limit":    limit,
		"total":    total,
		"timezone": loc.String(),
		"logs":     logs,
	})
}
