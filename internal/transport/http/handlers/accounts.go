package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hzwnrw/jellyfin-manager/internal/infra/jellyfin"
	"github.com/hzwnrw/jellyfin-manager/internal/repository"
	"github.com/hzwnrw/jellyfin-manager/internal/usecase"
)

// AccountHandler exposes the media-server account management endpoints.
type AccountHandler struct {
	accounts    *usecase.AccountService
	expirations *usecase.ExpirationService
	log         *zap.Logger
}

// NewAccountHandler builds an AccountHandler.
func NewAccountHandler(accounts *usecase.AccountService, expirations *usecase.ExpirationService, log *zap.Logger) *AccountHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountHandler{
		accounts:    accounts,
		expirations: expirations,
		log:         log,
	}
}

var accountErrorCases = []ErrorCase{
	{Err: jellyfin.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found on media server"},
	{Err: jellyfin.ErrMissingPolicy, Status: http.StatusConflict, Message: "account policy is incomplete on media server"},
	{Err: jellyfin.ErrUnreachable, Status: http.StatusBadGateway, Message: "media server unreachable"},
}

// List returns all known accounts, served from cache or the local mirror.
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "list accounts failed"))
		return
	}

	c.JSON(http.StatusOK, newAccountListResponse(accounts))
}

// Sync pulls the current account set from the media server into the local
// mirror.
func (h *AccountHandler) Sync(c *gin.Context) {
	count, err := h.accounts.Sync(c.Request.Context())
	if err != nil {
		RespondWithMappedError(c, err, accountErrorCases,
			http.StatusInternalServerError, "account sync failed")
		return
	}

	c.JSON(http.StatusOK, SyncResponse{Synced: count})
}

// SetDisabled toggles the disabled flag of an account on the media server.
func (h *AccountHandler) SetDisabled(c *gin.Context) {
	accountID := strings.TrimSpace(c.Param("id"))
	if accountID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "account id is required"))
		return
	}

	var req DisableRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Disabled == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "disabled flag is required"))
		return
	}

	account, err := h.accounts.SetDisabled(c.Request.Context(), accountID, *req.Disabled)
	if err != nil {
		RespondWithMappedError(c, err, accountErrorCases,
			http.StatusInternalServerError, "update account failed")
		return
	}

	c.JSON(http.StatusOK, newAccountPayload(*account))
}

// ScheduleExpiration stores or replaces the expiration for an account.
func (h *AccountHandler) ScheduleExpiration(c *gin.Context) {
	accountID := strings.TrimSpace(c.Param("id"))
	if accountID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "account id is required"))
		return
	}

	var req ExpirationScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "expires_at is required"))
		return
	}

	username := h.resolveUsername(c, accountID)

	record, err := h.expirations.Schedule(c.Request.Context(), accountID, username, req.ExpiresAt)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidExpiry, Status: http.StatusBadRequest, Message: "expires_at must use format 2006-01-02T15:04"},
		}, http.StatusInternalServerError, "schedule expiration failed")
		return
	}

	c.JSON(http.StatusOK, ExpirationPayload{
		AccountID: record.AccountID,
		Username:  record.Username,
		ExpiresAt: record.ExpiresAt,
		Processed: record.Processed,
	})
}

// ClearExpiration removes the scheduled expiration for an account.
func (h *AccountHandler) ClearExpiration(c *gin.Context) {
	accountID := strings.TrimSpace(c.Param("id"))
	if accountID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "account id is required"))
		return
	}

	if err := h.expirations.Clear(c.Request.Context(), accountID); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: repository.ErrNotFound, Status: http.StatusNotFound, Message: "no expiration scheduled for account"},
		}, http.StatusInternalServerError, "clear expiration failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "expiration cleared"})
}

// ListExpirations returns every scheduled expiration with local display
// formatting.
func (h *AccountHandler) ListExpirations(c *gin.Context) {
	views, err := h.expirations.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "list expirations failed"))
		return
	}

	payloads := make([]ExpirationPayload, 0, len(views))
	for _, view := range views {
		payloads = append(payloads, newExpirationPayload(view))
	}

	c.JSON(http.StatusOK, ExpirationListResponse{
		Expirations: payloads,
		Total:       len(payloads),
	})
}

// resolveUsername looks the account name up for display purposes. A lookup
// failure falls back to the bare id rather than failing the request.
func (h *AccountHandler) resolveUsername(c *gin.Context, accountID string) string {
	account, err := h.accounts.Get(c.Request.Context(), accountID)
	if err != nil || account == nil {
		h.log.Debug("account name lookup failed", zap.String("account_id", accountID), zap.Error(err))
		return accountID
	}
	return account.Name
}
