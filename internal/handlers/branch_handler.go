package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/httpresp"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
)

// ======================================================
// HANDLER
// ======================================================

// BranchHandler manages branches and the staff working in them.
type BranchHandler struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewBranchHandler(repo domain.Repository, d *audit.Dispatcher) *BranchHandler {
	return &BranchHandler{repo: repo, audit: d}
}

type BranchRequest struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	Timezone *string `json:"timezone"`
	Active   *bool   `json:"active"`
}

type StaffRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
	Role     string `json:"role" binding:"omitempty,oneof=admin barber"`
}

// ======================================================
// BRANCHES
// ======================================================

func (h *BranchHandler) List(c *gin.Context) {
	branches, err := h.repo.ListBranches(c.Request.Context(), tenantID(c))
	if err != nil {
		httperr.Internal(c, "failed_to_list_branches", "Erro ao listar unidades.")
		return
	}

	httpresp.List(c, branches)
}

func (h *BranchHandler) Create(c *gin.Context) {
	var req BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		httperr.BadRequest(c, "invalid_name", "Nome obrigatório.")
		return
	}

	branch := models.Branch{TenantID: tenantID(c), Active: true}
	if !applyBranch(c, &branch, req) {
		return
	}

	if err := h.repo.CreateBranch(c.Request.Context(), &branch); err != nil {
		httperr.Internal(c, "failed_to_create_branch", "Erro ao criar unidade.")
		return
	}

	h.dispatch(c, "branch_created", "branch", branch.ID, req)
	c.JSON(http.StatusCreated, branch)
}

func (h *BranchHandler) Update(c *gin.Context) {
	id, ok := uintParam(c, "branchId")
	if !ok {
		return
	}

	var req BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	branch, err := h.repo.GetBranch(ctx, tenantID(c), id)
	if err != nil {
		writeBusinessError(c, domain.NotFound(err, "branch_not_found"), "failed_to_get_branch")
		return
	}

	if !applyBranch(c, branch, req) {
		return
	}

	if err := h.repo.SaveBranch(ctx, branch); err != nil {
		httperr.Internal(c, "failed_to_update_branch", "Erro ao atualizar unidade.")
		return
	}

	h.dispatch(c, "branch_updated", "branch", branch.ID, req)
	c.JSON(http.StatusOK, branch)
}

func applyBranch(c *gin.Context, b *models.Branch, req BranchRequest) bool {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			httperr.BadRequest(c, "invalid_name", "Nome obrigatório.")
			return false
		}
		b.Name = name
	}
	if req.Address != nil {
		b.Address = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil {
		b.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Timezone != nil {
		tz := strings.TrimSpace(*req.Timezone)
		if tz != "" && !timezone.IsValid(tz) {
			httperr.BadRequest(c, "invalid_timezone", "Fuso horário inválido.")
			return false
		}
		b.Timezone = tz
	}
	if req.Active != nil {
		b.Active = *req.Active
	}
	return true
}

// ======================================================
// STAFF
// ======================================================

// branchOfTenant resolves :branchId within the caller's tenant.
func (h *BranchHandler) branchOfTenant(c *gin.Context) (uint, bool) {
	id, ok := uintParam(c, "branchId")
	if !ok {
		return 0, false
	}

	if _, err := h.repo.GetBranch(c.Request.Context(), tenantID(c), id); err != nil {
		writeBusinessError(c, domain.NotFound(err, "branch_not_found"), "failed_to_get_branch")
		return 0, false
	}
	return id, true
}

func (h *BranchHandler) ListStaff(c *gin.Context) {
	branchID, ok := h.branchOfTenant(c)
	if !ok {
		return
	}

	users, err := h.repo.ListStaff(c.Request.Context(), tenantID(c), branchID)
	if err != nil {
		httperr.Internal(c, "failed_to_list_staff", "Erro ao listar equipe.")
		return
	}

	out := make([]dto.UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, dto.FromUser(u))
	}
	httpresp.List(c, out)
}

func (h *BranchHandler) CreateStaff(c *gin.Context) {
	branchID, ok := h.branchOfTenant(c)
	if !ok {
		return
	}

	var req StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleBarber
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Erro ao processar senha.")
		return
	}

	user := models.User{
		TenantID:     tenantID(c),
		BranchID:     &branchID,
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hashed),
		Phone:        req.Phone,
		Role:         role,
		Active:       true,
	}

	if err := h.repo.CreateUser(c.Request.Context(), &user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			httperr.Conflict(c, "email_already_exists", "E-mail já cadastrado.")
			return
		}
		httperr.Internal(c, "failed_to_create_user", "Erro ao criar usuário.")
		return
	}

	h.dispatch(c, "staff_created", "user", user.ID, gin.H{"role": role, "branch_id": branchID})
	c.JSON(http.StatusCreated, dto.FromUser(user))
}

func (h *BranchHandler) dispatch(c *gin.Context, action, entity string, id uint, meta any) {
	uid := userID(c)
	h.audit.Dispatch(audit.Event{
		TenantID: tenantID(c),
		UserID:   &uid,
		Action:   action,
		Entity:   entity,
		EntityID: uintString(id),
		Metadata: meta,
	})
}
