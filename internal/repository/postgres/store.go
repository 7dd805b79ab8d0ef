package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgxpool.Pool the repositories rely on. Both the
// live pool and pgxmock satisfy it.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles every PostgreSQL-backed repository.
type Repositories struct {
	Expirations *ExpirationRepository
	Accounts    *AccountRepository
	AdminUsers  *AdminUserRepository
}

// NewRepositories constructs all repositories over a shared pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Expirations: NewExpirationRepository(pool),
		Accounts:    NewAccountRepository(pool),
		AdminUsers:  NewAdminUserRepository(pool),
	}
}
