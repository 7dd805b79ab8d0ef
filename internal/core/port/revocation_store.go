package port

import (
	"context"
	"time"
)

// RevocationStore records revoked session tokens until their natural expiry.
// Entries carry a TTL equal to the token's remaining lifetime, so the store
// never accumulates state beyond the token lifetime window.
type RevocationStore interface {
	// MarkRevoked stores the token hash with the supplied reason and TTL.
	// A returned error means the revocation did not take effect; callers
	// must surface it rather than swallow it.
	MarkRevoked(ctx context.Context, tokenHash string, reason string, ttl time.Duration) error

	// IsRevoked reports whether the token hash is present in the registry.
	// When the registry cannot be reached it returns revoked=true together
	// with the transport error: availability faults must never grant access
	// to a token that might have been revoked.
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}
