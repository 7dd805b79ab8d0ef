package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
	"github.com/hzwnrw/jellyfin-manager/internal/usecase"
)

const (
	// SessionCookieName is the cookie carrying the session token for
	// browser clients.
	SessionCookieName = "jwt_token"

	identityKey     = "identity"
	sessionTokenKey = "session_token"
)

// ErrorResponse matches the handlers.ErrorResponse structure
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// SessionToken returns the raw token the request presented, favoring the
// Authorization header over the session cookie. It returns "" when neither
// carries a token.
func SessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	if cookie, err := c.Cookie(SessionCookieName); err == nil {
		return strings.TrimSpace(cookie)
	}

	return ""
}

// SessionGate resolves the request's identity and stores it on the context.
// It never rejects: requests without a valid session proceed as anonymous,
// and access control happens in RequireAuth.
func SessionGate(authService *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c)
		if token != "" {
			if identity := authService.Authenticate(c.Request.Context(), token); identity != nil {
				c.Set(identityKey, identity)
				c.Set(sessionTokenKey, token)

				if reqCtx := GetRequestContext(c); reqCtx != nil {
					reqCtx.Subject = identity.Subject
				}
			}
		}

		c.Next()
	}
}

// RequireAuth rejects anonymous requests. API clients receive 401 JSON,
// browser navigation gets redirected to the login page.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentIdentity(c) != nil {
			c.Next()
			return
		}

		if wantsHTML(c) {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized,
			newErrorResponse(c, "authentication required"))
	}
}

// CurrentIdentity returns the authenticated identity or nil for anonymous
// requests.
func CurrentIdentity(c *gin.Context) *domain.Identity {
	if val, exists := c.Get(identityKey); exists {
		if identity, ok := val.(*domain.Identity); ok {
			return identity
		}
	}
	return nil
}

// AuthenticatedSubject returns the subject of the current identity, or ""
// when the request is anonymous.
func AuthenticatedSubject(c *gin.Context) string {
	if identity := CurrentIdentity(c); identity != nil {
		return identity.Subject
	}
	return ""
}

// CurrentSessionToken returns the raw token the gate accepted for this
// request, or "" for anonymous requests.
func CurrentSessionToken(c *gin.Context) string {
	if val, exists := c.Get(sessionTokenKey); exists {
		if token, ok := val.(string); ok {
			return token
		}
	}
	return ""
}

func wantsHTML(c *gin.Context) bool {
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, "text/html")
}
