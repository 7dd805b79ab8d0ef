package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
	"github.com/hzwnrw/jellyfin-manager/internal/repository"
)

func newAccountMock(t *testing.T) (pgxmock.PgxPoolIface, *AccountRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewAccountRepository(mock)
}

func TestAccountRepository_Upsert(t *testing.T) {
	mock, repo := newAccountMock(t)

	account := domain.RemoteAccount{ID: "u1", Name: "alice", Policy: domain.DefaultAccountPolicy()}
	account.Policy.IsDisabled = true

	mock.ExpectExec(`INSERT INTO jellyfin_accounts`).
		WithArgs("u1", "alice", true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Upsert(context.Background(), account); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_UpsertAll(t *testing.T) {
	mock, repo := newAccountMock(t)

	accounts := []domain.RemoteAccount{
		{ID: "u1", Name: "alice", Policy: domain.DefaultAccountPolicy()},
		{ID: "u2", Name: "bob", Policy: domain.DefaultAccountPolicy()},
	}

	mock.ExpectExec(`INSERT INTO jellyfin_accounts`).
		WithArgs("u1", "alice", false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO jellyfin_accounts`).
		WithArgs("u2", "bob", false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.UpsertAll(context.Background(), accounts); err != nil {
		t.Fatalf("UpsertAll returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByID(t *testing.T) {
	mock, repo := newAccountMock(t)

	rows := pgxmock.NewRows([]string{"id", "name", "is_disabled"}).
		AddRow("u1", "alice", true)

	mock.ExpectQuery(`SELECT id, name, is_disabled FROM jellyfin_accounts`).
		WithArgs("u1").
		WillReturnRows(rows)

	account, err := repo.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if !account.Policy.IsDisabled {
		t.Fatalf("expected disabled account")
	}
	if account.Policy.AuthenticationProvider == "" {
		t.Fatalf("expected default policy providers to be populated")
	}
}

func TestAccountRepository_GetByID_NotFound(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectQuery(`SELECT id, name, is_disabled FROM jellyfin_accounts`).
		WithArgs("unknown").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "is_disabled"}))

	if _, err := repo.GetByID(context.Background(), "unknown"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountRepository_ListAll(t *testing.T) {
	mock, repo := newAccountMock(t)

	rows := pgxmock.NewRows([]string{"id", "name", "is_disabled"}).
		AddRow("u1", "alice", false).
		AddRow("u2", "bob", true)

	mock.ExpectQuery(`SELECT id, name, is_disabled FROM jellyfin_accounts`).
		WillReturnRows(rows)

	accounts, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll returned error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[1].Name != "bob" || !accounts[1].Policy.IsDisabled {
		t.Fatalf("unexpected second account: %+v", accounts[1])
	}
}
