package port

import (
	"context"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
)

// AccountCache is a read-through cache over the account mirror. Write paths
// must call Invalidate/InvalidateAll after any state-changing write so cached
// reads cannot observe stale disabled state.
type AccountCache interface {
	GetAll(ctx context.Context) ([]domain.RemoteAccount, bool, error)
	SetAll(ctx context.Context, accounts []domain.RemoteAccount) error
	GetByID(ctx context.Context, accountID string) (*domain.RemoteAccount, bool, error)
	Set(ctx context.Context, account domain.RemoteAccount) error
	Invalidate(ctx context.Context, accountID string) error
	InvalidateAll(ctx context.Context) error
}
