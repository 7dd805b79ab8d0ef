package port

import (
	"context"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus. Publishing is
// fire-and-forget for callers: a failed publish is logged by the
// implementation and never fails the owning flow.
type EventPublisher interface {
	PublishAccountDisabled(ctx context.Context, event domain.AccountDisabledEvent) error
	PublishExpirationScheduled(ctx context.Context, event domain.ExpirationScheduledEvent) error
	PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error
}
