package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
	"github.com/hzwnrw/jellyfin-manager/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub event published",
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishAccountDisabled logs account.disabled / account.enabled events.
func (p *StubPublisher) PublishAccountDisabled(_ context.Context, event domain.AccountDisabledEvent) error {
	eventType := "account.enabled"
	if event.Disabled {
		eventType = "account.disabled"
	}
	p.logEvent(eventType, event.AccountID, event.OccurredAt, event)
	return nil
}

// PublishExpirationScheduled logs expiration.scheduled / expiration.cleared events.
func (p *StubPublisher) PublishExpirationScheduled(_ context.Context, event domain.ExpirationScheduledEvent) error {
	eventType := "expiration.scheduled"
	if event.Cleared {
		eventType = "expiration.cleared"
	}
	p.logEvent(eventType, event.AccountID, event.OccurredAt, event)
	return nil
}

// PublishSessionRevoked logs session.revoked events.
func (p *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	p.logEvent("session.revoked", "", event.OccurredAt, event)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
