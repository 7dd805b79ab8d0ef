package port

import (
	"context"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
)

// AccountRepository mirrors remote Jellyfin accounts in the local database.
// The mirror is refreshed by the periodic sync and by per-call writes;
// last writer wins on both sides.
type AccountRepository interface {
	UpsertAll(ctx context.Context, accounts []domain.RemoteAccount) error
	Upsert(ctx context.Context, account domain.RemoteAccount) error
	GetByID(ctx context.Context, id string) (*domain.RemoteAccount, error)
	ListAll(ctx context.Context) ([]domain.RemoteAccount, error)
}

// AdminUserRepository stores operator accounts for panel sign-in.
type AdminUserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.AdminUser, error)
	UpdatePasswordHash(ctx context.Context, username, passwordHash string) error
}
