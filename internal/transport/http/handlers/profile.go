package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hzwnrw/jellyfin-manager/internal/transport/http/middleware"
	"github.com/hzwnrw/jellyfin-manager/internal/usecase"
)

// ProfileHandler exposes operator self-service endpoints.
type ProfileHandler struct {
	profile *usecase.ProfileService
	log     *zap.Logger
}

// NewProfileHandler builds a ProfileHandler.
func NewProfileHandler(profile *usecase.ProfileService, log *zap.Logger) *ProfileHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileHandler{profile: profile, log: log}
}

// ChangePassword rotates the authenticated operator's password. The session
// token used for this request is revoked on success, so the client must log
// in again.
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	subject := middleware.AuthenticatedSubject(c)
	if subject == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "current_password and new_password are required"))
		return
	}

	err := h.profile.ChangePassword(c.Request.Context(), subject,
		req.CurrentPassword, req.NewPassword, middleware.CurrentSessionToken(c))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "current password is incorrect"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "new password does not meet the password policy"},
		}, http.StatusInternalServerError, "password change failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed, please sign in again"})
}
