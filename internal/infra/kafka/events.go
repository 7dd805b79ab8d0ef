package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
	"github.com/hzwnrw/jellyfin-manager/internal/core/port"
	"github.com/hzwnrw/jellyfin-manager/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	AccountID string            `json:"account_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventType, accountID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccountDisabled publishes account.disabled / account.enabled events.
func (p *EventPublisher) PublishAccountDisabled(ctx context.Context, event domain.AccountDisabledEvent) error {
	eventType := "account.enabled"
	if event.Disabled {
		eventType = "account.disabled"
	}
	return p.publish(ctx, eventType, event.AccountID, event.OccurredAt, event)
}

// PublishExpirationScheduled publishes expiration.scheduled / expiration.cleared events.
func (p *EventPublisher) PublishExpirationScheduled(ctx context.Context, event domain.ExpirationScheduledEvent) error {
	eventType := "expiration.scheduled"
	if event.Cleared {
		eventType = "expiration.cleared"
	}
	return p.publish(ctx, eventType, event.AccountID, event.OccurredAt, event)
}

// PublishSessionRevoked publishes session.revoked events.
func (p *EventPublisher) PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error {
	return p.publish(ctx, "session.revoked", "", event.OccurredAt, event)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
