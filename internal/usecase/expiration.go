package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
	"github.com/hzwnrw/jellyfin-manager/internal/core/port"
)

// ErrInvalidExpiry indicates the submitted expiry datetime could not be
// parsed.
var ErrInvalidExpiry = errors.New("invalid expiry datetime")

// expiryInputLayout matches the datetime-local value submitted by the panel.
const expiryInputLayout = "2006-01-02T15:04"

const displayLayout = "02 Jan 2006 15:04"

// ExpirationService owns the expiration ledger: operators schedule and clear
// expirations, and the reconciliation pass disables accounts whose expiry
// has passed. Disabling goes through AccountService so the mirror, cache and
// event paths stay consistent with operator-triggered toggles.
type ExpirationService struct {
	expirations port.ExpirationRepository
	accounts    *AccountService
	events      port.EventPublisher
	log         *zap.Logger
	location    *time.Location
	now         func() time.Time
}

// NewExpirationService constructs an ExpirationService. The timezone is the
// operator-facing display zone; storage is always UTC.
func NewExpirationService(
	expirations port.ExpirationRepository,
	accounts *AccountService,
	events port.EventPublisher,
	timezone string,
	log *zap.Logger,
) (*ExpirationService, error) {
	if expirations == nil {
		return nil, fmt.Errorf("expiration repository is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	location := time.UTC
	if strings.TrimSpace(timezone) != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load display timezone: %w", err)
		}
		location = loc
	}

	return &ExpirationService{
		expirations: expirations,
		accounts:    accounts,
		events:      events,
		log:         log,
		location:    location,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the service's time source, for tests.
func (s *ExpirationService) WithClock(now func() time.Time) *ExpirationService {
	if now != nil {
		s.now = now
	}
	return s
}

// ExpirationView pairs a ledger record with its display-zone rendering.
type ExpirationView struct {
	domain.ExpirationRecord
	ExpiresAtLocal string
}

// Schedule records an expiration for an account. The local datetime is
// interpreted in the display timezone and stored normalized to UTC. Any
// previous schedule for the account is replaced.
func (s *ExpirationService) Schedule(ctx context.Context, accountID, username, localDateTime string) (*domain.ExpirationRecord, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("account id is required")
	}

	parsed, err := time.ParseInLocation(expiryInputLayout, strings.TrimSpace(localDateTime), s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExpiry, err)
	}

	record := domain.ExpirationRecord{
		AccountID: accountID,
		Username:  strings.TrimSpace(username),
		ExpiresAt: parsed.UTC(),
		Processed: false,
	}

	if err := s.expirations.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("store expiration: %w", err)
	}

	s.log.Info("expiration scheduled",
		zap.String("account_id", record.AccountID),
		zap.String("username", record.Username),
		zap.Time("expires_at", record.ExpiresAt),
	)

	s.publish(ctx, domain.ExpirationScheduledEvent{
		AccountID:  record.AccountID,
		Username:   record.Username,
		ExpiresAt:  record.ExpiresAt,
		OccurredAt: s.now(),
	})

	return &record, nil
}

// Clear removes any pending expiration for an account, the re-enable path.
func (s *ExpirationService) Clear(ctx context.Context, accountID string) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}

	if err := s.expirations.Delete(ctx, accountID); err != nil {
		return fmt.Errorf("clear expiration: %w", err)
	}

	s.publish(ctx, domain.ExpirationScheduledEvent{
		AccountID:  accountID,
		Cleared:    true,
		OccurredAt: s.now(),
	})

	return nil
}

// List returns every ledger record with expiry rendered in the display zone.
func (s *ExpirationService) List(ctx context.Context) ([]ExpirationView, error) {
	records, err := s.expirations.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expirations: %w", err)
	}

	views := make([]ExpirationView, 0, len(records))
	for _, record := range records {
		views = append(views, ExpirationView{
			ExpirationRecord: record,
			ExpiresAtLocal:   record.ExpiresAt.In(s.location).Format(displayLayout),
		})
	}

	return views, nil
}

// ProcessDue is the reconciliation pass. It reads unprocessed records and,
// for each one due at now (inclusive boundary), disables the remote account
// and only then marks the record processed. A failed disable leaves the
// record due for the next pass; disabling an already-disabled account is a
// remote no-op, so retries are safe.
func (s *ExpirationService) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if now.IsZero() {
		now = s.now()
	}
	now = now.UTC()

	pending, err := s.expirations.ListUnprocessed(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unprocessed expirations: %w", err)
	}

	processed := 0
	for _, record := range pending {
		if !record.Due(now) {
			continue
		}

		s.log.Info("account expired, disabling",
			zap.String("account_id", record.AccountID),
			zap.String("username", record.Username),
			zap.Time("expires_at", record.ExpiresAt),
		)

		if _, err := s.accounts.setDisabled(ctx, record.AccountID, true, "expiration"); err != nil {
			s.log.Error("disable expired account failed, will retry next pass",
				zap.String("account_id", record.AccountID),
				zap.Error(err),
			)
			continue
		}

		if err := s.expirations.MarkProcessed(ctx, record.AccountID); err != nil {
			// The account is disabled but the record stays due; the next
			// pass repeats the disable, which the remote treats as a no-op.
			s.log.Error("mark expiration processed failed",
				zap.String("account_id", record.AccountID),
				zap.Error(err),
			)
			continue
		}

		processed++
	}

	return processed, nil
}

func (s *ExpirationService) publish(ctx context.Context, event domain.ExpirationScheduledEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishExpirationScheduled(ctx, event); err != nil {
		s.log.Warn("publish expiration event failed", zap.Error(err))
	}
}
