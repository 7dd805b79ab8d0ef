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

// AdminUserRepository stores operator accounts in PostgreSQL.
type AdminUserRepository struct {
	exec    querier
	builder squirrel.StatementBuilderType
}

// NewAdminUserRepository wires a PostgreSQL-backed admin user repository.
func NewAdminUserRepository(exec querier) *AdminUserRepository {
	return &AdminUserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByUsername retrieves an operator account.
func (r *AdminUserRepository) GetByUsername(ctx context.Context, username string) (*domain.AdminUser, error) {
	stmt, args, err := r.builder.
		Select("username", "password_hash").
		From("app_users").
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select admin user sql: %w", err)
	}

	var user domain.AdminUser
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(&user.Username, &user.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan admin user: %w", err)
	}

	return &user, nil
}

// UpdatePasswordHash replaces the stored password hash for an operator.
func (r *AdminUserRepository) UpdatePasswordHash(ctx context.Context, username, passwordHash string) error {
	stmt, args, err := r.builder.
		Update("app_users").
		Set("password_hash", passwordHash).
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

var _ port.AdminUserRepository = (*AdminUserRepository)(nil)
