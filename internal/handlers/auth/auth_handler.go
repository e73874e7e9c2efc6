// internal/handlers/auth/auth_handler.go
package auth

import (
	"errors"
	"net/http"
	"strconv"

	"attendance-service/internal/domain/auth"
	"attendance-service/internal/middleware"
	"attendance-service/internal/pkg/response"
	xerrors "attendance-service/internal/pkg/errors"
	authUsecase "attendance-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ========== Login ==========

// Login handles admin login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	// Set IP and User-Agent
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("login failed",
			zap.String("username", req.Username),
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		status := http.StatusUnauthorized
		if errors.Is(err, xerrors.ErrRateLimited) {
			status = http.StatusTooManyRequests
		}
		response.Error(c, status, "login failed", err)
		return
	}

	h.logger.Info("admin logged in",
		zap.Int64("identity_id", loginResp.User.ID),
		zap.String("username", loginResp.User.Username),
	)

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// ========== Token Verification ==========

// Verify re-checks the caller's token and returns the current user record.
// Devices call this on startup to decide whether a stored token is still
// usable.
func (h *AuthHandler) Verify(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)

	verifyResp, err := h.authService.Verify(c.Request.Context(), identityID)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "verification failed", err)
		return
	}

	response.Success(c, http.StatusOK, "token valid", verifyResp)
}

// Me returns the authenticated user's profile
func (h *AuthHandler) Me(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)

	verifyResp, err := h.authService.Verify(c.Request.Context(), identityID)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "failed to load profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", verifyResp.User)
}

// ========== Logout ==========

// Logout invalidates the current session (requires auth)
func (h *AuthHandler) Logout(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)
	jti := middleware.MustGetJTI(c)

	if err := h.authService.Logout(c.Request.Context(), identityID, jti); err != nil {
		h.logger.Error("logout failed",
			zap.Int64("identity_id", identityID),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// LogoutAll invalidates every session of the caller (requires auth)
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)

	if err := h.authService.LogoutAllSessions(c.Request.Context(), identityID); err != nil {
		response.Error(c, http.StatusInternalServerError, "logout all failed", err)
		return
	}

	response.Success(c, http.StatusOK, "all sessions logged out", nil)
}

// ========== Password Management ==========

// ChangePassword updates the caller's password and revokes other sessions
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)

	var req auth.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), identityID, &req); err != nil {
		response.Error(c, http.StatusBadRequest, "failed to change password", err)
		return
	}

	response.Success(c, http.StatusOK, "password changed", nil)
}

// ========== Admin Management (superadmin only) ==========

// CreateAdmin provisions a new admin account
func (h *AuthHandler) CreateAdmin(c *gin.Context) {
	var req auth.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	info, err := h.authService.CreateAdmin(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, xerrors.ErrDuplicateEntry) {
			status = http.StatusConflict
		}
		response.Error(c, status, "failed to create admin", err)
		return
	}

	h.logger.Info("admin created",
		zap.Int64("identity_id", info.ID),
		zap.String("username", info.Username),
		zap.String("role", info.Role),
	)

	response.Success(c, http.StatusCreated, "admin created", info)
}

// ListAdmins returns all admin accounts
func (h *AuthHandler) ListAdmins(c *gin.Context) {
	admins, err := h.authService.ListAdmins(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list admins", err)
		return
	}

	response.Success(c, http.StatusOK, "admins retrieved", admins)
}

// DeactivateAdmin suspends an admin account and kills its sessions
func (h *AuthHandler) DeactivateAdmin(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid admin id", err)
		return
	}

	if targetID == middleware.MustGetIdentityID(c) {
		response.Error(c, http.StatusBadRequest, "cannot deactivate own account", nil)
		return
	}

	if err := h.authService.DeactivateAdmin(c.Request.Context(), targetID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, xerrors.ErrNotFound) {
			status = http.StatusNotFound
		}
		response.Error(c, status, "failed to deactivate admin", err)
		return
	}

	response.Success(c, http.StatusOK, "admin deactivated", nil)
}
