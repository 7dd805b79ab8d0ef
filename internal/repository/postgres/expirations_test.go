package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
	"github.com/hzwnrw/jellyfin-manager/internal/repository"
)

func newExpirationMock(t *testing.T) (pgxmock.PgxPoolIface, *ExpirationRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewExpirationRepository(mock)
}

func TestExpirationRepository_Upsert(t *testing.T) {
	mock, repo := newExpirationMock(t)

	expiresAt := time.Date(2025, time.June, 1, 16, 0, 0, 0, time.UTC)
	record := domain.ExpirationRecord{
		AccountID: "acct-1",
		Username:  "alice",
		ExpiresAt: expiresAt,
		Processed: false,
	}

	mock.ExpectExec(`INSERT INTO account_expirations`).
		WithArgs(record.AccountID, record.Username, expiresAt, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Upsert(context.Background(), record); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestExpirationRepository_GetByAccountID(t *testing.T) {
	mock, repo := newExpirationMock(t)

	expiresAt := time.Date(2025, time.June, 1, 16, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{"account_id", "username", "expires_at", "processed"}).
		AddRow("acct-1", "alice", expiresAt, false)

	mock.ExpectQuery(`SELECT account_id, username, expires_at, processed FROM account_expirations`).
		WithArgs("acct-1").
		WillReturnRows(rows)

	record, err := repo.GetByAccountID(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("GetByAccountID returned error: %v", err)
	}
	if record.Username != "alice" {
		t.Fatalf("expected username alice, got %s", record.Username)
	}
	if !record.ExpiresAt.Equal(expiresAt) {
		t.Fatalf("expected expiry %v, got %v", expiresAt, record.ExpiresAt)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestExpirationRepository_GetByAccountID_NotFound(t *testing.T) {
	mock, repo := newExpirationMock(t)

	mock.ExpectQuery(`SELECT account_id, username, expires_at, processed FROM account_expirations`).
		WithArgs("unknown").
		WillReturnRows(pgxmock.NewRows([]string{"account_id", "username", "expires_at", "processed"}))

	_, err := repo.GetByAccountID(context.Background(), "unknown")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpirationRepository_ListUnprocessed(t *testing.T) {
	mock, repo := newExpirationMock(t)

	first := time.Date(2025, time.June, 1, 16, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	rows := pgxmock.NewRows([]string{"account_id", "username", "expires_at", "processed"}).
		AddRow("acct-1", "alice", first, false).
		AddRow("acct-2", "bob", second, false)

	mock.ExpectQuery(`SELECT account_id, username, expires_at, processed FROM account_expirations`).
		WithArgs(false).
		WillReturnRows(rows)

	records, err := repo.ListUnprocessed(context.Background())
	if err != nil {
		t.Fatalf("ListUnprocessed returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].AccountID != "acct-1" || records[1].AccountID != "acct-2" {
		t.Fatalf("unexpected ordering: %+v", records)
	}
}

func TestExpirationRepository_MarkProcessed(t *testing.T) {
	mock, repo := newExpirationMock(t)

	mock.ExpectExec(`UPDATE account_expirations SET processed`).
		WithArgs(true, "acct-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.MarkProcessed(context.Background(), "acct-1"); err != nil {
		t.Fatalf("MarkProcessed returned error: %v", err)
	}
}

func TestExpirationRepository_MarkProcessed_NotFound(t *testing.T) {
	mock, repo := newExpirationMock(t)

	mock.ExpectExec(`UPDATE account_expirations SET processed`).
		WithArgs(true, "unknown").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.MarkProcessed(context.Background(), "unknown"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExpirationRepository_Delete(t *testing.T) {
	mock, repo := newExpirationMock(t)

	mock.ExpectExec(`DELETE FROM account_expirations`).
		WithArgs("acct-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := repo.Delete(context.Background(), "acct-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
}
