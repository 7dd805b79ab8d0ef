package port

import (
	"context"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
)

// ExpirationRepository is the durable ledger of scheduled account
// expirations. All mutation is funneled through this operation set.
type ExpirationRepository interface {
	Upsert(ctx context.Context, record domain.ExpirationRecord) error
	GetByAccountID(ctx context.Context, accountID string) (*domain.ExpirationRecord, error)
	ListAll(ctx context.Context) ([]domain.ExpirationRecord, error)
	ListUnprocessed(ctx context.Context) ([]domain.ExpirationRecord, error)
	MarkProcessed(ctx context.Context, accountID string) error
	Delete(ctx context.Context, accountID string) error
}
