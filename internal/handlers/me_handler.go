package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

type MeHandler struct {
	db    *gorm.DB
	audit *audit.Dispatcher
}

func NewMeHandler(db *gorm.DB, d *audit.Dispatcher) *MeHandler {
	return &MeHandler{db: db, audit: d}
}

func (h *MeHandler) GetMe(c *gin.Context) {
	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Preload("Tenant").
		Where("tenant_id = ?", tenantID(c)).
		First(&user, userID(c)).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, "user_not_found", "Usuário não encontrado.")
			return
		}
		httperr.Internal(c, "failed_to_get_user", "Erro ao buscar usuário.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   dto.FromUser(user),
		"tenant": user.Tenant,
	})
}

// ======================================================
// TENANT SETTINGS
// ======================================================

type UpdateTenantRequest struct {
	Name              *string `json:"name"`
	Phone             *string `json:"phone"`
	Timezone          *string `json:"timezone"`
	MinAdvanceMinutes *int    `json:"min_advance_minutes" binding:"omitempty,min=0,max=10080"`
}

func (h *MeHandler) GetTenant(c *gin.Context) {
	var tenant models.Tenant
	if err := h.db.WithContext(c.Request.Context()).First(&tenant, tenantID(c)).Error; err != nil {
		httperr.NotFound(c, "tenant_not_found", "Barbearia não encontrada.")
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *MeHandler) UpdateTenant(c *gin.Context) {
	var req UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	var tenant models.Tenant
	if err := h.db.WithContext(c.Request.Context()).First(&tenant, tenantID(c)).Error; err != nil {
		httperr.NotFound(c, "tenant_not_found", "Barbearia não encontrada.")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			httperr.BadRequest(c, "invalid_name", "Nome obrigatório.")
			return
		}
		tenant.Name = name
	}
	if req.Phone != nil {
		tenant.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Timezone != nil {
		if !timezone.IsValid(*req.Timezone) {
			httperr.BadRequest(c, "invalid_timezone", "Fuso horário inválido.")
			return
		}
		tenant.Timezone = *req.Timezone
	}
	if req.MinAdvanceMinutes != nil {
		tenant.MinAdvanceMinutes = *req.MinAdvanceMinutes
	}

	if err := h.db.WithContext(c.Request.Context()).Save(&tenant).Error; err != nil {
		httperr.Internal(c, "failed_to_update_tenant", "Erro ao atualizar barbearia.")
		return
	}

	uid := userID(c)
	h.audit.Dispatch(audit.Event{
		TenantID: tenant.ID,
		UserID:   &uid,
		Action:   "tenant_updated",
		Entity:   "tenant",
		EntityID: tenant.Slug,
		Metadata: req,
	})

	c.JSON(http.StatusOK, tenant)
}
