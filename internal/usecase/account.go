package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
	"github.com/hzwnrw/jellyfin-manager/internal/core/port"
	"github.com/hzwnrw/jellyfin-manager/internal/repository"
)

// AccountService administers remote Jellyfin accounts: listing via the local
// mirror with a read-through cache, toggling the disabled flag through the
// gateway, and syncing the mirror from the remote listing.
type AccountService struct {
	gateway     port.AccountGateway
	accounts    port.AccountRepository
	cache       port.AccountCache
	expirations port.ExpirationRepository
	events      port.EventPublisher
	log         *zap.Logger
}

// NewAccountService constructs an AccountService instance.
func NewAccountService(
	gateway port.AccountGateway,
	accounts port.AccountRepository,
	cache port.AccountCache,
	expirations port.ExpirationRepository,
	events port.EventPublisher,
	log *zap.Logger,
) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}

	return &AccountService{
		gateway:     gateway,
		accounts:    accounts,
		cache:       cache,
		expirations: expirations,
		events:      events,
		log:         log,
	}
}

// List returns the mirrored accounts, served from cache when possible.
// Cache faults degrade to a mirror read, never to a failed listing.
func (s *AccountService) List(ctx context.Context) ([]domain.RemoteAccount, error) {
	if s.cache != nil {
		accounts, hit, err := s.cache.GetAll(ctx)
		if err != nil {
			s.log.Warn("account cache read failed", zap.Error(err))
		} else if hit {
			return accounts, nil
		}
	}

	accounts, err := s.accounts.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mirrored accounts: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetAll(ctx, accounts); err != nil {
			s.log.Warn("account cache write failed", zap.Error(err))
		}
	}

	return accounts, nil
}

// Get resolves a single account, preferring cache, then the local mirror,
// then the remote server. Remote hits are written back to the mirror.
func (s *AccountService) Get(ctx context.Context, accountID string) (*domain.RemoteAccount, error) {
	if s.cache != nil {
		account, hit, err := s.cache.GetByID(ctx, accountID)
		if err != nil {
			s.log.Warn("account cache read failed", zap.Error(err))
		} else if hit {
			return account, nil
		}
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err == nil {
		if s.cache != nil {
			if cacheErr := s.cache.Set(ctx, *account); cacheErr != nil {
				s.log.Warn("account cache write failed", zap.Error(cacheErr))
			}
		}
		return account, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("read mirrored account: %w", err)
	}

	remote, err := s.gateway.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Upsert(ctx, *remote); err != nil {
		s.log.Warn("mirror account write failed",
			zap.String("account_id", accountID), zap.Error(err))
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, *remote); err != nil {
			s.log.Warn("account cache write failed", zap.Error(err))
		}
	}

	return remote, nil
}

// Sync refreshes the local mirror from the remote listing and drops stale
// cache entries. Concurrent per-call writes race under last-writer-wins on
// both sides; no stronger consistency is assumed.
func (s *AccountService) Sync(ctx context.Context) (int, error) {
	remote, err := s.gateway.ListAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch remote accounts: %w", err)
	}

	if err := s.accounts.UpsertAll(ctx, remote); err != nil {
		return 0, fmt.Errorf("refresh account mirror: %w", err)
	}

	s.invalidateListing(ctx)

	s.log.Info("synced accounts from remote server", zap.Int("count", len(remote)))
	return len(remote), nil
}

// SetDisabled toggles an account's disabled flag for an operator action.
// Enabling an account clears any pending expiration, so a later
// reconciliation tick finds nothing to act on.
func (s *AccountService) SetDisabled(ctx context.Context, accountID string, disabled bool) (*domain.RemoteAccount, error) {
	return s.setDisabled(ctx, accountID, disabled, "operator")
}

// setDisabled performs the gateway write and keeps local state consistent.
// On gateway failure nothing local is mutated; the error carries the
// gateway's typed class for the caller to act on.
func (s *AccountService) setDisabled(ctx context.Context, accountID string, disabled bool, source string) (*domain.RemoteAccount, error) {
	account, err := s.gateway.SetDisabled(ctx, accountID, disabled)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Upsert(ctx, *account); err != nil {
		s.log.Error("mirror update failed after remote write",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
	}

	if !disabled && s.expirations != nil {
		if err := s.expirations.Delete(ctx, accountID); err != nil {
			s.log.Error("clear expiration for enabled account failed",
				zap.String("account_id", accountID),
				zap.Error(err),
			)
		}
	}

	s.invalidate(ctx, accountID)

	if s.events != nil {
		event := domain.AccountDisabledEvent{
			AccountID:  accountID,
			Username:   account.Name,
			Disabled:   disabled,
			Source:     source,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.events.PublishAccountDisabled(ctx, event); err != nil {
			s.log.Warn("publish account disabled event failed", zap.Error(err))
		}
	}

	return account, nil
}

func (s *AccountService) invalidate(ctx context.Context, accountID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, accountID); err != nil {
		s.log.Warn("invalidate account cache failed",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
	}
	s.invalidateListing(ctx)
}

func (s *AccountService) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAll(ctx); err != nil {
		s.log.Warn("invalidate account listing cache failed", zap.Error(err))
	}
}
