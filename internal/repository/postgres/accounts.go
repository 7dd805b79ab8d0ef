package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
	"github.com/hzwnrw/jellyfin-manager/internal/core/port"
	"github.com/hzwnrw/jellyfin-manager/internal/repository"
)

// AccountRepository mirrors remote Jellyfin accounts in PostgreSQL.
type AccountRepository struct {
	exec    querier
	builder squirrel.StatementBuilderType
}

// NewAccountRepository wires a PostgreSQL-backed account mirror.
func NewAccountRepository(exec querier) *AccountRepository {
	return &AccountRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Upsert inserts or updates a single mirrored account.
func (r *AccountRepository) Upsert(ctx context.Context, account domain.RemoteAccount) error {
	if account.ID == "" {
		return fmt.Errorf("account id is required")
	}

	sql, args, err := r.builder.Insert("jellyfin_accounts").
		Columns("id", "name", "is_disabled").
		Values(account.ID, account.Name, account.Policy.IsDisabled).
		Suffix("ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, is_disabled = EXCLUDED.is_disabled").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert account sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}

	return nil
}

// UpsertAll refreshes the mirror with a full remote listing. Writes go row
// by row; a partial failure leaves earlier rows updated, which is acceptable
// under the last-writer-wins model the sync operates in.
func (r *AccountRepository) UpsertAll(ctx context.Context, accounts []domain.RemoteAccount) error {
	for _, account := range accounts {
		if err := r.Upsert(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a mirrored account.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.RemoteAccount, error) {
	stmt, args, err := r.builder.
		Select("id", "name", "is_disabled").
		From("jellyfin_accounts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select account sql: %w", err)
	}

	account := domain.RemoteAccount{Policy: domain.DefaultAccountPolicy()}
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&account.ID, &account.Name, &account.Policy.IsDisabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return &account, nil
}

// ListAll returns every mirrored account ordered by name.
func (r *AccountRepository) ListAll(ctx context.Context) ([]domain.RemoteAccount, error) {
	stmt, args, err := r.builder.
		Select("id", "name", "is_disabled").
		From("jellyfin_accounts").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list accounts sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.RemoteAccount
	for rows.Next() {
		account := domain.RemoteAccount{Policy: domain.DefaultAccountPolicy()}
		if err := rows.Scan(&account.ID, &account.Name, &account.Policy.IsDisabled); err != nil {
			return nil, fmt.Errorf("scan account row: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account rows: %w", err)
	}

	return accounts, nil
}

var _ port.AccountRepository = (*AccountRepository)(nil)
