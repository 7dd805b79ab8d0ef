package port

import (
	"context"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
)

// AccountGateway is the thin client over the remote Jellyfin server.
// Failures are typed (unreachable / not found / missing policy) so callers
// can decide between retrying and surfacing to the operator.
type AccountGateway interface {
	// GetAccount fetches a single account, including its policy sub-object.
	GetAccount(ctx context.Context, accountID string) (*domain.RemoteAccount, error)

	// ListAccounts fetches every account known to the remote server.
	ListAccounts(ctx context.Context) ([]domain.RemoteAccount, error)

	// SetDisabled fetches the account, mutates only the disabled flag on its
	// policy and writes the policy back. Repeated calls with the same value
	// are a no-op from the account's perspective. Returns the updated account.
	SetDisabled(ctx context.Context, accountID string, disabled bool) (*domain.RemoteAccount, error)
}
