package handler

import (
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/security/middleware"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *service.AuthService
	fail        middleware.ErrorResponder
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, fail middleware.ErrorResponder, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		authService: authService,
		fail:        fail,
		logger:      logger,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := required(map[string]string{"email": req.Email, "password": req.Password}); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result, "Login successful")
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.logger.InfoContext(r.Context(), "registration failed",
			slog.String("email", req.Email),
			slog.String("error", err.Error()),
		)
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, result, "Registration successful")
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.authService.Me(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, user, "Profile retrieved successfully")
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req ChangePasswordRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := required(map[string]string{"oldPassword": req.OldPassword, "newPassword": req.NewPassword}); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.authService.ChangePassword(r.Context(), p, req.OldPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, nil, "Password changed successfully")
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	result, err := h.authService.RefreshToken(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, result, "Token refreshed successfully")
}

// required reports every blank field, in a stable order.
func required(fields map[string]string) error {
	var details []string
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if strings.TrimSpace(fields[name]) == "" {
			details = append(details, name+" is required")
		}
	}
	if len(details) > 0 {
		return domain.Invalid("Validation failed", details...)
	}
	return nil
}
