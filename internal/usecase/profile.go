package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hzwnrw/jellyfin-manager/internal/core/port"
	"github.com/hzwnrw/jellyfin-manager/internal/infra/security"
	"github.com/hzwnrw/jellyfin-manager/internal/repository"
)

// ErrPasswordPolicyViolation indicates the new password failed a policy rule.
var ErrPasswordPolicyViolation = errors.New("password policy violation")

// ProfileService handles operator self-service, currently password changes.
type ProfileService struct {
	adminUsers port.AdminUserRepository
	validator  *security.PasswordValidator
	auth       *AuthService
	log        *zap.Logger
}

// NewProfileService constructs a ProfileService instance.
func NewProfileService(
	adminUsers port.AdminUserRepository,
	validator *security.PasswordValidator,
	auth *AuthService,
	log *zap.Logger,
) *ProfileService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &ProfileService{
		adminUsers: adminUsers,
		validator:  validator,
		auth:       auth,
		log:        log,
	}
}

// ChangePassword verifies the current password, applies the policy to the
// new one and stores its hash. The caller's current session token is revoked
// afterwards so the old credential cannot keep an open session alive.
func (s *ProfileService) ChangePassword(ctx context.Context, username, currentPassword, newPassword, rawToken string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}

	user, err := s.adminUsers.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("lookup admin user: %w", err)
	}

	ok, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify current password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	if err := s.validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}
	if err := security.RequireDifferentFrom(currentPassword).Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.adminUsers.UpdatePasswordHash(ctx, username, hash); err != nil {
		return fmt.Errorf("store new password: %w", err)
	}

	s.log.Info("operator password changed", zap.String("username", username))

	if s.auth != nil && strings.TrimSpace(rawToken) != "" {
		if err := s.auth.RevokeToken(ctx, rawToken, "password_changed"); err != nil {
			s.log.Warn("revoke session after password change failed", zap.Error(err))
		}
	}

	return nil
}
