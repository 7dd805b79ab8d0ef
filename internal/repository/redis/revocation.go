package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/hzwnrw/jellyfin-manager/internal/core/port"
)

const defaultRevocationPrefix = "blacklist_token"

const revokedSentinel = "revoked"

// RevocationRepository stores revoked session token hashes in Redis with a
// TTL equal to the token's remaining lifetime, so entries self-expire no
// later than the token itself would have.
type RevocationRepository struct {
	client *red.Client
	prefix string
}

// NewRevocationRepository wires a Redis client into a revocation repository.
func NewRevocationRepository(client *red.Client, keyPrefix string) *RevocationRepository {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRevocationPrefix
	}

	return &RevocationRepository{client: client, prefix: prefix}
}

// MarkRevoked stores the token hash with the supplied reason and TTL.
// An error here means the revocation did not take effect; it must propagate
// to the caller rather than be swallowed.
func (r *RevocationRepository) MarkRevoked(ctx context.Context, tokenHash string, reason string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key := r.key(tokenHash)
	if key == "" {
		return errors.New("token hash must not be empty")
	}

	value := strings.TrimSpace(reason)
	if value == "" {
		value = revokedSentinel
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked token: %w", err)
	}

	return nil
}

// IsRevoked reports whether the token hash is present in the registry.
// When Redis cannot be reached the result is revoked=true together with the
// error: an availability fault must never grant access to a token that
// might have been revoked.
func (r *RevocationRepository) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	key := r.key(tokenHash)
	if key == "" {
		return false, errors.New("token hash must not be empty")
	}

	if err := r.client.Get(ctx, key).Err(); err != nil {
		if errors.Is(err, red.Nil) {
			return false, nil
		}
		return true, fmt.Errorf("redis get revoked token: %w", err)
	}

	return true, nil
}

func (r *RevocationRepository) key(tokenHash string) string {
	trimmed := strings.TrimSpace(tokenHash)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.prefix, trimmed)
}

var _ port.RevocationStore = (*RevocationRepository)(nil)
