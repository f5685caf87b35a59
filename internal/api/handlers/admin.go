package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/devstudio/devstudio-server/internal/api/middleware"
	"github.com/devstudio/devstudio-server/internal/db/repository"
	"github.com/devstudio/devstudio-server/internal/models"
	"github.com/devstudio/devstudio-server/internal/service"
	"github.com/gin-gonic/gin"
)

// AdminHandler handles administrator lifecycle operations
type AdminHandler struct {
	service   *service.AdminService
	auditRepo *repository.AuditRepository
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(svc *service.AdminService, auditRepo *repository.AuditRepository) *AdminHandler {
	return &AdminHandler{
		service:   svc,
		auditRepo: auditRepo,
	}
}

// CreateAdminRequest represents an admin creation request
type CreateAdminRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email"`
	Invite   string `json:"invite"`
}

// Create creates a new administrator.
// POST /api/admin/create
//
// The first administrator is created without authentication. After that,
// the caller needs either a superadmin bearer token or a valid invite code.
func (h *AdminHandler) Create(c *gin.Context) {
	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationErrors(c, http.StatusBadRequest, []string{"Invalid request body"})
		return
	}

	claims := middleware.GetClaims(c)
	admin, err := h.service.CreateAdmin(service.CreateAdminInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Invite:   req.Invite,
	}, claims)

	if err != nil {
		h.audit(c, models.ActionAdminCreate, req.Username, false, err.Error())

		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			RespondValidationErrors(c, http.StatusBadRequest, verr.Errors)
		case errors.Is(err, service.ErrUnauthorized):
			RespondError(c, http.StatusUnauthorized, "Unauthorized")
		case errors.Is(err, service.ErrForbidden):
			RespondError(c, http.StatusForbidden, "Forbidden: insufficient role")
		case errors.Is(err, service.ErrInviteInvalid):
			RespondError(c, http.StatusUnauthorized, "Invalid or expired invite code")
		case errors.Is(err, service.ErrConflict):
			RespondError(c, http.StatusConflict, "Admin already exists")
		default:
			log.Printf("Error creating admin: %v", err)
			RespondError(c, http.StatusInternalServerError, "Could not create admin")
		}
		return
	}

	if req.Invite != "" {
		h.audit(c, models.ActionInviteRedeem, admin.Username, true, "")
	}
	h.audit(c, models.ActionAdminCreate, admin.Username, true, "")
	log.Printf("Admin created: %s", admin.Username)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Admin created",
	})
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	TwoFAToken string `json:"twoFAToken"`
}

// Login authenticates an administrator and returns a session token.
// POST /api/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondValidationErrors(c, http.StatusBadRequest, []string{"Invalid request body"})
		return
	}

	token, err := h.service.Login(req.Username, req.Password, req.TwoFAToken)
	if err != nil {
		h.audit(c, models.ActionAdminLogin, req.Username, false, err.Error())

		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			RespondError(c, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, service.ErrTwoFactorRequired):
			RespondError(c, http.StatusUnauthorized, "2FA token required")
		case errors.Is(err, service.ErrInvalidTwoFactorCode):
			RespondError(c, http.StatusUnauthorized, "Invalid 2FA token")
		default:
			log.Printf("Login error: %v", err)
			RespondError(c, http.StatusInternalServerError, "Server error")
		}
		return
	}

	h.audit(c, models.ActionAdminLogin, req.Username, true, "")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
	})
}

// TwoFARequest carries a TOTP code for the enable/disable endpoints
type TwoFARequest struct {
	Token string `json:"token" binding:"required"`
}

// Setup2FA provisions a pending TOTP secret for the calling administrator.
// POST /api/admin/2fa/setup
func (h *AdminHandler) Setup2FA(c *gin.Context) {
	claims := middleware.GetClaims(c)

	setup, err := h.service.Setup2FA(claims.AdminID)
	if err != nil {
		h.audit(c, models.ActionTwoFASetup, claims.Username, false, err.Error())

		switch {
		case errors.Is(err, service.ErrNotFound):
			RespondError(c, http.StatusNotFound, "Admin not found")
		case errors.Is(err, service.ErrTwoFactorAlreadyEnabled):
			RespondError(c, http.StatusBadRequest, "2FA already enabled")
		default:
			log.Printf("Error setting up 2FA: %v", err)
			RespondError(c, http.StatusInternalServerError, "Server error")
		}
		return
	}

	h.audit(c, models.ActionTwoFASetup, claims.Username, true, "")

	c.JSON(http.StatusOK, gin.H{
		"otpauth": setup.OTPAuth,
		"qr":      setup.QR,
	})
}

// Enable2FA confirms the pending secret and turns two-factor on.
// POST /api/admin/2fa/enable
func (h *AdminHandler) Enable2FA(c *gin.Context) {
	var req TwoFARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "2FA token required")
		return
	}

	claims := middleware.GetClaims(c)

	if err := h.service.Enable2FA(claims.AdminID, req.Token); err != nil {
		h.audit(c, models.ActionTwoFAEnable, claims.Username, false, err.Error())

		switch {
		case errors.Is(err, service.ErrTwoFactorNotConfigured):
			RespondError(c, http.StatusBadRequest, "2FA setup required")
		case errors.Is(err, service.ErrInvalidTwoFactorCode):
			RespondError(c, http.StatusUnauthorized, "Invalid 2FA token")
		default:
			log.Printf("Error enabling 2FA: %v", err)
			RespondError(c, http.StatusInternalServerError, "Server error")
		}
		return
	}

	h.audit(c, models.ActionTwoFAEnable, claims.Username, true, "")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "2FA enabled",
	})
}

// Disable2FA turns two-factor off after verifying a final code.
// POST /api/admin/2fa/disable
func (h *AdminHandler) Disable2FA(c *gin.Context) {
	var req TwoFARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "2FA token required")
		return
	}

	claims := middleware.GetClaims(c)

	if err := h.service.Disable2FA(claims.AdminID, req.Token); err != nil {
		h.audit(c, models.ActionTwoFADisable, claims.Username, false, err.Error())

		switch {
		case errors.Is(err, service.ErrTwoFactorNotConfigured):
			RespondError(c, http.StatusBadRequest, "2FA not enabled")
		case errors.Is(err, service.ErrInvalidTwoFactorCode):
			RespondError(c, http.StatusUnauthorized, "Invalid 2FA token")
		default:
			log.Printf("Error disabling 2FA: %v", err)
			RespondError(c, http.StatusInternalServerError, "Server error")
		}
		return
	}

	h.audit(c, models.ActionTwoFADisable, claims.Username, true, "")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "2FA disabled",
	})
}

// AdminSummary is the listing projection; hashes and secrets never leave
// the store layer.
type AdminSummary struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TwoFAEnabled bool   `json:"twoFAEnabled"`
}

// List lists all administrators. Superadmin only.
// GET /api/admin/list
func (h *AdminHandler) List(c *gin.Context) {
	admins, err := h.service.ListAdmins()
	if err != nil {
		log.Printf("Error listing admins: %v", err)
		RespondError(c, http.StatusInternalServerError, "Could not list admins")
		return
	}

	summaries := make([]AdminSummary, 0, len(admins))
	for _, a := range admins {
		summaries = append(summaries, AdminSummary{
			Username:     a.Username,
			Email:        a.Email,
			Role:         a.Role,
			TwoFAEnabled: a.TwoFAEnabled,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summaries,
	})
}

// CreateInvite mints a single-use invite code. Superadmin only.
// POST /api/admin/invite
func (h *AdminHandler) CreateInvite(c *gin.Context) {
	claims := middleware.GetClaims(c)

	invite, err := h.service.CreateInvite(claims.AdminID)
	if err != nil {
		h.audit(c, models.ActionInviteCreate, claims.Username, false, err.Error())
		log.Printf("Error creating invite: %v", err)
		RespondError(c, http.StatusInternalServerError, "Could not create invite")
		return
	}

	h.audit(c, models.ActionInviteCreate, claims.Username, true, "")

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"invite":    invite.Code,
		"expiresAt": invite.ExpiresAt.Format(time.RFC3339),
	})
}

// audit records an audit row; failures only get logged
func (h *AdminHandler) audit(c *gin.Context, action, username string, success bool, errMsg string) {
	err := h.auditRepo.Create(&models.AuditLog{
		Action:    action,
		Username:  username,
		ClientIP:  GetClientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
		Success:   success,
		ErrorMsg:  errMsg,
	})
	if err != nil {
		log.Printf("Error writing audit log: %v", err)
	}
}
