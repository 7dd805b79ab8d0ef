package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hzwnrw/jellyfin-manager/internal/transport/http/middleware"
	"github.com/hzwnrw/jellyfin-manager/internal/usecase"
)

// AuthHandler exposes login and logout endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
	log  *zap.Logger
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{auth: auth, log: log}
}

// Login authenticates an operator and issues a session token. The token is
// returned in the body and planted as a session cookie for browser clients.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username and password are required"))
		return
	}

	token, _, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid username or password"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	lifetime := int(h.auth.TokenLifetime().Seconds())
	c.SetCookie(middleware.SessionCookieName, token, lifetime, "/", "", false, true)

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: lifetime,
	})
}

// Logout revokes the presented session token and clears the session cookie.
// It reports success even when no token was presented or revocation failed,
// so a client can always terminate its local session.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.SessionToken(c); token != "" {
		h.auth.Logout(c.Request.Context(), token)
	}

	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", false, true)

	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}
