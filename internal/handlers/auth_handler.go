package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/config"
	"github.com/BruksfildServices01/barber-booking/internal/dto"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/middleware"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
	"github.com/BruksfildServices01/barber-booking/internal/validators"
)

type AuthHandler struct {
	db     *gorm.DB
	config *config.Config
	audit  *audit.Dispatcher

	// emailCheck is swapped in tests to avoid DNS lookups.
	emailCheck func(string) bool
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config, d *audit.Dispatcher) *AuthHandler {
	return &AuthHandler{
		db:         db,
		config:     cfg,
		audit:      d,
		emailCheck: validators.IsEmailDomainValid,
	}
}

// --------- Requests ---------

type RegisterRequest struct {
	TenantName  string `json:"tenant_name" binding:"required"`
	TenantSlug  string `json:"tenant_slug" binding:"required"`
	TenantPhone string `json:"tenant_phone"`
	Timezone    string `json:"timezone"`

	BranchName    string `json:"branch_name"`
	BranchAddress string `json:"branch_address"`

	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone"`
}

// --------- Handlers ---------

// Register creates a tenant, its first branch and the owner account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.TenantSlug))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = timezone.Default()
	}
	if !timezone.IsValid(tz) {
		httperr.BadRequest(c, "invalid_timezone", "Fuso horário inválido.")
		return
	}

	if !h.emailCheck(email) {
		httperr.BadRequest(c, "invalid_email_domain", "O domínio do e-mail informado não parece ser válido.")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		httperr.Internal(c, "failed_to_hash_password", "Erro ao processar senha.")
		return
	}

	branchName := strings.TrimSpace(req.BranchName)
	if branchName == "" {
		branchName = req.TenantName
	}

	tenant := models.Tenant{
		Name:     req.TenantName,
		Slug:     slug,
		Phone:    req.TenantPhone,
		Timezone: tz,
	}
	var branch models.Branch
	var user models.User

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		branch = models.Branch{
			TenantID: tenant.ID,
			Name:     branchName,
			Address:  req.BranchAddress,
			Phone:    req.TenantPhone,
			Active:   true,
		}
		if err := tx.Create(&branch).Error; err != nil {
			return err
		}

		user = models.User{
			TenantID:     tenant.ID,
			BranchID:     &branch.ID,
			Name:         req.Name,
			Email:        email,
			PasswordHash: string(hashed),
			Phone:        req.Phone,
			Role:         models.RoleOwner,
			Active:       true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if httperr.IsUniqueViolation(err) {
			httperr.Conflict(c, "already_registered", "Slug ou e-mail já cadastrado.")
			return
		}
		httperr.Internal(c, "failed_to_register", "Erro ao criar cadastro.")
		return
	}

	token, err := middleware.IssueToken(h.config.JWTSecret, &user, time.Now())
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Erro ao gerar token.")
		return
	}

	h.audit.Dispatch(audit.Event{
		TenantID: tenant.ID,
		UserID:   &user.ID,
		Action:   "tenant_registered",
		Entity:   "tenant",
		EntityID: slug,
	})

	c.JSON(http.StatusCreated, dto.LoginResponse{
		Token: token,
		User:  dto.FromUser(user),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := h.db.WithContext(c.Request.Context()).
		Where("email = ?", email).
		First(&user).Error; err != nil {

		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.Unauthorized(c, "invalid_credentials", "E-mail ou senha inválidos.")
			return
		}
		httperr.Internal(c, "internal_error", "Erro interno.")
		return
	}

	if !user.Active {
		httperr.Unauthorized(c, "user_inactive", "Usuário desativado.")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		httperr.Unauthorized(c, "invalid_credentials", "E-mail ou senha inválidos.")
		return
	}

	token, err := middleware.IssueToken(h.config.JWTSecret, &user, time.Now())
	if err != nil {
		httperr.Internal(c, "failed_to_generate_token", "Erro ao gerar token.")
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		Token: token,
		User:  dto.FromUser(user),
	})
}
