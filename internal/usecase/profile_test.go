package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/hzwnrw/jellyfin-manager/internal/infra/security"
)

func newProfileFixture(t *testing.T) (*ProfileService, *fakeAdminUsers, *AuthService, *fakeRevocationStore) {
	t.Helper()

	revocations := newFakeRevocationStore()
	auth, admins, _ := newTestAuthService(t, revocations)

	service := NewProfileService(admins, security.DefaultPasswordValidator(), auth, zaptest.NewLogger(t))
	return service, admins, auth, revocations
}

func TestProfileService_ChangePassword(t *testing.T) {
	service, admins, auth, _ := newProfileFixture(t)

	token, _, err := auth.Login(context.Background(), "admin", "tr4verse-magnolia-94")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	oldHash := admins.users["admin"].PasswordHash

	err = service.ChangePassword(context.Background(), "admin",
		"tr4verse-magnolia-94", "ember-quixotic-lane-72", token)
	if err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}

	if admins.users["admin"].PasswordHash == oldHash {
		t.Fatalf("expected stored hash to change")
	}

	ok, err := security.VerifyPassword("ember-quixotic-lane-72", admins.users["admin"].PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected new password to verify, ok=%v err=%v", ok, err)
	}

	// The session that performed the change must no longer authenticate.
	if identity := auth.Authenticate(context.Background(), token); identity != nil {
		t.Fatalf("expected the old session to be revoked")
	}
}

func TestProfileService_ChangePasswordRejectsWrongCurrent(t *testing.T) {
	service, _, _, _ := newProfileFixture(t)

	err := service.ChangePassword(context.Background(), "admin",
		"not-the-password", "ember-quixotic-lane-72", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestProfileService_ChangePasswordEnforcesPolicy(t *testing.T) {
	service, _, _, _ := newProfileFixture(t)

	cases := []struct {
		name        string
		newPassword string
	}{
		{name: "too short", newPassword: "Ab1"},
		{name: "no digit", newPassword: "entirely-letters-here"},
		{name: "weak", newPassword: "password12"},
		{name: "same as current", newPassword: "tr4verse-magnolia-94"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := service.ChangePassword(context.Background(), "admin",
				"tr4verse-magnolia-94", tc.newPassword, "")
			if !errors.Is(err, ErrPasswordPolicyViolation) {
				t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
			}
		})
	}
}

func TestProfileService_ChangePasswordUnknownUser(t *testing.T) {
	service, admins, _, _ := newProfileFixture(t)

	delete(admins.users, "admin")

	err := service.ChangePassword(context.Background(), "admin",
		"tr4verse-magnolia-94", "ember-quixotic-lane-72", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
