package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
	"github.com/hzwnrw/jellyfin-manager/internal/usecase"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned for a successful login. The same token is also
// set as a session cookie for browser clients.
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// AccountPayload summarizes a media-server account in API responses.
type AccountPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	IsDisabled bool   `json:"is_disabled"`
}

// AccountListResponse wraps the account listing.
type AccountListResponse struct {
	Accounts []AccountPayload `json:"accounts"`
	Total    int              `json:"total"`
}

// SyncResponse reports how many accounts the sync pass mirrored.
type SyncResponse struct {
	Synced int `json:"synced"`
}

// DisableRequest toggles the disabled flag on a remote account.
type DisableRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

// ExpirationScheduleRequest carries the local date and time after which the
// account is disabled, formatted as 2006-01-02T15:04.
type ExpirationScheduleRequest struct {
	ExpiresAt string `json:"expires_at" binding:"required"`
}

// ExpirationPayload describes a scheduled expiration in API responses.
type ExpirationPayload struct {
	AccountID      string    `json:"account_id"`
	Username       string    `json:"username"`
	ExpiresAt      time.Time `json:"expires_at"`
	ExpiresAtLocal string    `json:"expires_at_local"`
	Processed      bool      `json:"processed"`
}

// ExpirationListResponse wraps all scheduled expirations.
type ExpirationListResponse struct {
	Expirations []ExpirationPayload `json:"expirations"`
	Total       int                 `json:"total"`
}

// PasswordChangeRequest captures a password change request body.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func newAccountPayload(account domain.RemoteAccount) AccountPayload {
	return AccountPayload{
		ID:         account.ID,
		Name:       account.Name,
		IsDisabled: account.Policy.IsDisabled,
	}
}

func newAccountListResponse(accounts []domain.RemoteAccount) AccountListResponse {
	payloads := make([]AccountPayload, 0, len(accounts))
	for _, account := range accounts {
		payloads = append(payloads, newAccountPayload(account))
	}

	return AccountListResponse{
		Accounts: payloads,
		Total:    len(payloads),
	}
}

func newExpirationPayload(view usecase.ExpirationView) ExpirationPayload {
	return ExpirationPayload{
		AccountID:      view.AccountID,
		Username:       view.Username,
		ExpiresAt:      view.ExpiresAt,
		ExpiresAtLocal: view.ExpiresAtLocal,
		Processed:      view.Processed,
	}
}
