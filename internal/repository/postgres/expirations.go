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

// ExpirationRepository implements port.ExpirationRepository using PostgreSQL.
// The table is keyed by account id, so at most one record can exist per
// account; Upsert replaces any previous schedule, which also resets the
// processed flag for the new expiry.
type ExpirationRepository struct {
	exec    querier
	builder squirrel.StatementBuilderType
}

// NewExpirationRepository wires a PostgreSQL-backed expiration ledger.
func NewExpirationRepository(exec querier) *ExpirationRepository {
	return &ExpirationRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Upsert inserts or replaces the expiration record for an account.
func (r *ExpirationRepository) Upsert(ctx context.Context, record domain.ExpirationRecord) error {
	if record.AccountID == "" {
		return fmt.Errorf("account id is required")
	}

	sql, args, err := r.builder.Insert("account_expirations").
		Columns("account_id", "username", "expires_at", "processed").
		Values(record.AccountID, record.Username, record.ExpiresAt.UTC(), record.Processed).
		Suffix("ON CONFLICT (account_id) DO UPDATE SET username = EXCLUDED.username, expires_at = EXCLUDED.expires_at, processed = EXCLUDED.processed").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert expiration sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert expiration: %w", err)
	}

	return nil
}

// GetByAccountID retrieves the expiration record for an account.
func (r *ExpirationRepository) GetByAccountID(ctx context.Context, accountID string) (*domain.ExpirationRecord, error) {
	stmt, args, err := r.builder.
		Select("account_id", "username", "expires_at", "processed").
		From("account_expirations").
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select expiration sql: %w", err)
	}

	var record domain.ExpirationRecord
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&record.AccountID, &record.Username, &record.ExpiresAt, &record.Processed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan expiration: %w", err)
	}

	record.ExpiresAt = record.ExpiresAt.UTC()
	return &record, nil
}

// ListAll returns every expiration record.
func (r *ExpirationRepository) ListAll(ctx context.Context) ([]domain.ExpirationRecord, error) {
	return r.list(ctx, nil)
}

// ListUnprocessed returns records the reconciliation pass still has to act on.
func (r *ExpirationRepository) ListUnprocessed(ctx context.Context) ([]domain.ExpirationRecord, error) {
	return r.list(ctx, squirrel.Eq{"processed": false})
}

func (r *ExpirationRepository) list(ctx context.Context, where any) ([]domain.ExpirationRecord, error) {
	query := r.builder.
		Select("account_id", "username", "expires_at", "processed").
		From("account_expirations").
		OrderBy("expires_at ASC")
	if where != nil {
		query = query.Where(where)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list expirations sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("list expirations: %w", err)
	}
	defer rows.Close()

	var records []domain.ExpirationRecord
	for rows.Next() {
		var record domain.ExpirationRecord
		if err := rows.Scan(&record.AccountID, &record.Username, &record.ExpiresAt, &record.Processed); err != nil {
			return nil, fmt.Errorf("scan expiration row: %w", err)
		}
		record.ExpiresAt = record.ExpiresAt.UTC()
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expiration rows: %w", err)
	}

	return records, nil
}

// MarkProcessed flips the processed flag for an account's record. The flag
// only ever moves false to true; deleting and re-creating the record is the
// sole way back.
func (r *ExpirationRepository) MarkProcessed(ctx context.Context, accountID string) error {
	stmt, args, err := r.builder.
		Update("account_expirations").
		Set("processed", true).
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark processed sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("mark expiration processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes the expiration record for an account.
func (r *ExpirationRepository) Delete(ctx context.Context, accountID string) error {
	stmt, args, err := r.builder.
		Delete("account_expirations").
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete expiration sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete expiration: %w", err)
	}

	return nil
}

var _ port.ExpirationRepository = (*ExpirationRepository)(nil)
