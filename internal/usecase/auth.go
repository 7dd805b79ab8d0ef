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
	"github.com/hzwnrw/jellyfin-manager/internal/infra/logger"
	"github.com/hzwnrw/jellyfin-manager/internal/infra/security"
	"github.com/hzwnrw/jellyfin-manager/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided username or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthService authenticates operators and session tokens. Token
// authentication combines codec verification with a revocation registry
// lookup; the registry read is the only side effect on that path.
type AuthService struct {
	codec       *security.TokenCodec
	revocations port.RevocationStore
	adminUsers  port.AdminUserRepository
	events      port.EventPublisher
	log         *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	codec *security.TokenCodec,
	revocations port.RevocationStore,
	adminUsers port.AdminUserRepository,
	events port.EventPublisher,
	log *zap.Logger,
) (*AuthService, error) {
	if codec == nil {
		return nil, fmt.Errorf("token codec is required")
	}
	if revocations == nil {
		return nil, fmt.Errorf("revocation store is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &AuthService{
		codec:       codec,
		revocations: revocations,
		adminUsers:  adminUsers,
		events:      events,
		log:         log,
	}, nil
}

// TokenLifetime exposes the configured session token lifetime.
func (s *AuthService) TokenLifetime() time.Duration {
	return s.codec.Lifetime()
}

// Login validates operator credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *security.SessionClaims, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}
	if s.adminUsers == nil {
		return "", nil, fmt.Errorf("admin user repository not configured")
	}

	user, err := s.adminUsers.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup admin user: %w", err)
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return "", nil, ErrInvalidCredentials
	}

	token, claims, err := s.codec.Issue(user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("issue session token: %w", err)
	}

	return token, claims, nil
}

// Authenticate resolves a raw token into an identity. A nil result means the
// request is anonymous: missing, invalid and revoked tokens all degrade to
// anonymous here, never to an error the transport layer could leak.
// Registry unavailability counts as revoked.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) *domain.Identity {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil
	}

	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		s.log.Debug("session token rejected",
			zap.String("token", logger.MaskToken(rawToken)),
			zap.Error(err),
		)
		return nil
	}

	revoked, err := s.revocations.IsRevoked(ctx, security.HashToken(rawToken))
	if err != nil {
		s.log.Warn("revocation registry unavailable, denying access",
			zap.String("token", logger.MaskToken(rawToken)),
			zap.Error(err),
		)
		return nil
	}
	if revoked {
		s.log.Warn("revoked session token rejected",
			zap.String("subject", claims.Subject),
			zap.String("token", logger.MaskToken(rawToken)),
		)
		return nil
	}

	identity := &domain.Identity{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity
}

// RevokeToken pushes the token into the revocation registry with a TTL equal
// to its remaining lifetime, falling back to the configured lifetime when the
// token no longer verifies. An error means the revocation did not take effect.
func (s *AuthService) RevokeToken(ctx context.Context, rawToken, reason string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return fmt.Errorf("token is required")
	}

	ttl := s.codec.Lifetime()
	subject := ""
	if claims, err := s.codec.Verify(rawToken); err == nil {
		ttl = s.codec.RemainingLifetime(claims)
		subject = claims.Subject
	}

	if err := s.revocations.MarkRevoked(ctx, security.HashToken(rawToken), reason, ttl); err != nil {
		return fmt.Errorf("mark token revoked: %w", err)
	}

	if s.events != nil {
		event := domain.SessionRevokedEvent{
			Subject:    subject,
			Reason:     reason,
			OccurredAt: time.Now().UTC(),
		}
		if err := s.events.PublishSessionRevoked(ctx, event); err != nil {
			s.log.Warn("publish session revoked event failed", zap.Error(err))
		}
	}

	return nil
}

// Logout revokes the supplied token. The returned flag reports whether the
// revocation took effect; the caller clears client state and succeeds either
// way, leaving at worst a window bounded by the token lifetime.
func (s *AuthService) Logout(ctx context.Context, rawToken string) bool {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return false
	}

	if err := s.RevokeToken(ctx, rawToken, "user_logout"); err != nil {
		s.log.Error("logout revocation failed, token remains valid until natural expiry",
			zap.String("token", logger.MaskToken(rawToken)),
			zap.Error(err),
		)
		return false
	}

	return true
}
