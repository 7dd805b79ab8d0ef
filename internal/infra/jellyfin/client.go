package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
	"github.com/hzwnrw/jellyfin-manager/internal/core/port"
	"github.com/hzwnrw/jellyfin-manager/internal/infra/config"
)

var (
	// ErrUnreachable indicates the remote server could not be reached or
	// answered with a server-side failure. Transient by nature; callers
	// decide retry policy.
	ErrUnreachable = errors.New("jellyfin: server unreachable")
	// ErrAccountNotFound indicates the remote server has no such account.
	ErrAccountNotFound = errors.New("jellyfin: account not found")
	// ErrMissingPolicy indicates the fetched account carried no policy
	// sub-object, so the disabled flag cannot be mutated safely.
	ErrMissingPolicy = errors.New("jellyfin: account policy missing")
)

const apiKeyHeader = "X-Emby-Token"

const defaultRequestTimeout = 10 * time.Second

// Client talks to the Jellyfin user administration API. It implements
// port.AccountGateway.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient constructs a Jellyfin API client from configuration.
func NewClient(cfg config.JellyfinSettings, logger *zap.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("jellyfin: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("jellyfin: parse base url: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}, nil
}

// GetAccount fetches a single account with its policy sub-object.
func (c *Client) GetAccount(ctx context.Context, accountID string) (*domain.RemoteAccount, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("jellyfin: account id is required")
	}

	var account domain.RemoteAccount
	if err := c.getJSON(ctx, fmt.Sprintf("/Users/%s", url.PathEscape(accountID)), &account); err != nil {
		return nil, err
	}

	if account.ID == "" {
		account.ID = accountID
	}

	return &account, nil
}

// ListAccounts fetches every account known to the remote server, with
// policies included.
func (c *Client) ListAccounts(ctx context.Context) ([]domain.RemoteAccount, error) {
	var accounts []domain.RemoteAccount
	if err := c.getJSON(ctx, "/Users?includePolicy=true", &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SetDisabled fetches the account, mutates only the disabled flag and posts
// the policy back. The remote treats repeated writes of the same value as a
// no-op, which keeps reconciliation retries safe.
func (c *Client) SetDisabled(ctx context.Context, accountID string, disabled bool) (*domain.RemoteAccount, error) {
	account, err := c.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Policy.AuthenticationProvider == "" && account.Policy.PasswordResetProvider == "" {
		return nil, fmt.Errorf("%w: account %s", ErrMissingPolicy, accountID)
	}

	account.Policy.IsDisabled = disabled

	body, err := json.Marshal(account.Policy)
	if err != nil {
		return nil, fmt.Errorf("jellyfin: marshal policy: %w", err)
	}

	endpoint := fmt.Sprintf("%s/Users/%s/Policy", c.baseURL, url.PathEscape(accountID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("jellyfin: build policy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if err := c.checkStatus(resp.StatusCode, accountID); err != nil {
		return nil, err
	}

	c.logger.Info("updated remote account policy",
		zap.String("account_id", accountID),
		zap.Bool("disabled", disabled),
	)

	return account, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("jellyfin: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if err := c.checkStatus(resp.StatusCode, path); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("jellyfin: decode response: %w", err)
	}

	return nil
}

func (c *Client) checkStatus(status int, subject string) error {
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrAccountNotFound, subject)
	case status >= 500:
		return fmt.Errorf("%w: status %d for %s", ErrUnreachable, status, subject)
	case status >= 400:
		return fmt.Errorf("jellyfin: unexpected status %d for %s", status, subject)
	default:
		return nil
	}
}

var _ port.AccountGateway = (*Client)(nil)
