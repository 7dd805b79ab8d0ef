package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
	"github.com/hzwnrw/jellyfin-manager/internal/core/port"
)

const defaultAccountCachePrefix = "accounts"

const allAccountsKey = "all"

// AccountCacheRepository is a Redis-backed read-through cache over the
// account mirror. Cache faults degrade to a miss, never to an error the
// caller has to handle: the mirror is always the fallback.
type AccountCacheRepository struct {
	client *red.Client
	prefix string
	ttl    time.Duration
}

// NewAccountCacheRepository wires Redis storage for account snapshots.
func NewAccountCacheRepository(client *red.Client, keyPrefix string, ttl time.Duration) *AccountCacheRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultAccountCachePrefix
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &AccountCacheRepository{client: client, prefix: prefix, ttl: ttl}
}

// GetAll returns the cached account listing when present.
func (r *AccountCacheRepository) GetAll(ctx context.Context) ([]domain.RemoteAccount, bool, error) {
	data, err := r.client.Get(ctx, r.key(allAccountsKey)).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get account listing: %w", err)
	}

	var accounts []domain.RemoteAccount
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, false, fmt.Errorf("decode account listing: %w", err)
	}

	return accounts, true, nil
}

// SetAll stores the account listing snapshot.
func (r *AccountCacheRepository) SetAll(ctx context.Context, accounts []domain.RemoteAccount) error {
	data, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encode account listing: %w", err)
	}

	if err := r.client.Set(ctx, r.key(allAccountsKey), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set account listing: %w", err)
	}

	return nil
}

// GetByID returns a cached single account when present.
func (r *AccountCacheRepository) GetByID(ctx context.Context, accountID string) (*domain.RemoteAccount, bool, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, false, errors.New("account id must not be empty")
	}

	data, err := r.client.Get(ctx, r.key(accountID)).Bytes()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get account: %w", err)
	}

	var account domain.RemoteAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, false, fmt.Errorf("decode account: %w", err)
	}

	return &account, true, nil
}

// Set stores a single account snapshot.
func (r *AccountCacheRepository) Set(ctx context.Context, account domain.RemoteAccount) error {
	if strings.TrimSpace(account.ID) == "" {
		return errors.New("account id must not be empty")
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}

	if err := r.client.Set(ctx, r.key(account.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set account: %w", err)
	}

	return nil
}

// Invalidate drops the cached entry for a single account.
func (r *AccountCacheRepository) Invalidate(ctx context.Context, accountID string) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return errors.New("account id must not be empty")
	}

	if err := r.client.Del(ctx, r.key(accountID)).Err(); err != nil {
		return fmt.Errorf("redis delete account cache: %w", err)
	}
	return nil
}

// InvalidateAll drops the cached account listing.
func (r *AccountCacheRepository) InvalidateAll(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key(allAccountsKey)).Err(); err != nil {
		return fmt.Errorf("redis delete account listing cache: %w", err)
	}
	return nil
}

func (r *AccountCacheRepository) key(suffix string) string {
	return fmt.Sprintf("%s:%s", r.prefix, suffix)
}

var _ port.AccountCache = (*AccountCacheRepository)(nil)
