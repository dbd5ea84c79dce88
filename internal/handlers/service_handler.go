package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type ServiceHandler struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewServiceHandler(repo domain.Repository, d *audit.Dispatcher) *ServiceHandler {
	return &ServiceHandler{repo: repo, audit: d}
}

type ServiceRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	DurationMin *int     `json:"duration_min" binding:"omitempty,min=5,max=480"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	Category    *string  `json:"category"`
	Active      *bool    `json:"active"`
}

// List returns the tenant's services. ?all=true includes inactive ones.
func (h *ServiceHandler) List(c *gin.Context) {
	services, err := h.repo.ListServices(c.Request.Context(), tenantID(c), c.Query("all") == "true")
	if err != nil {
		httperr.Internal(c, "failed_to_list_services", "Erro ao listar serviços.")
		return
	}

	out := make([]dto.ServiceDTO, 0, len(services))
	for _, s := range services {
		out = append(out, dto.FromService(s))
	}

	c.JSON(http.StatusOK, dto.ServicesResponse{Data: out, Total: len(out)})
}

func (h *ServiceHandler) Create(c *gin.Context) {
	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	if req.Name == nil || req.DurationMin == nil {
		httperr.BadRequest(c, "invalid_request", "Nome e duração são obrigatórios.")
		return
	}

	svc := models.Service{TenantID: tenantID(c), Active: true}
	if !applyService(c, &svc, req) {
		return
	}

	if err := h.repo.CreateService(c.Request.Context(), &svc); err != nil {
		httperr.Internal(c, "failed_to_create_service", "Erro ao criar serviço.")
		return
	}

	h.dispatch(c, "service_created", svc.ID, req)
	c.JSON(http.StatusCreated, dto.FromService(svc))
}

func (h *ServiceHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var req ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	svc, err := h.repo.FindService(ctx, tenantID(c), id)
	if err != nil {
		writeBusinessError(c, domain.NotFound(err, "service_not_found"), "failed_to_get_service")
		return
	}

	if !applyService(c, svc, req) {
		return
	}

	if err := h.repo.SaveService(ctx, svc); err != nil {
		httperr.Internal(c, "failed_to_update_service", "Erro ao atualizar serviço.")
		return
	}

	h.dispatch(c, "service_updated", svc.ID, req)
	c.JSON(http.StatusOK, dto.FromService(*svc))
}

func applyService(c *gin.Context, s *models.Service, req ServiceRequest) bool {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			httperr.BadRequest(c, "invalid_name", "Nome obrigatório.")
			return false
		}
		s.Name = name
	}
	if req.Description != nil {
		s.Description = *req.Description
	}
	if req.DurationMin != nil {
		s.DurationMin = *req.DurationMin
	}
	if req.Price != nil {
		s.Price = *req.Price
	}
	if req.Category != nil {
		s.Category = *req.Category
	}
	if req.Active != nil {
		s.Active = *req.Active
	}
	return true
}

func (h *ServiceHandler) dispatch(c *gin.Context, action string, id uint, meta any) {
	uid := userID(c)
	h.audit.Dispatch(audit.Event{
		TenantID: tenantID(c),
		UserID:   &uid,
		Action:   action,
		Entity:   "service",
		EntityID: uintString(id),
		Metadata: meta,
	})
}
