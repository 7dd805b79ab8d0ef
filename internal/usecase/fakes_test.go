package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
	"github.com/hzwnrw/jellyfin-manager/internal/repository"
)

type fakeRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Duration
	failErr error
}

func newFakeRevocationStore() *fakeRevocationStore {
	return &fakeRevocationStore{entries: map[string]time.Duration{}}
}

func (s *fakeRevocationStore) MarkRevoked(_ context.Context, tokenHash, _ string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.entries[tokenHash] = ttl
	return nil
}

func (s *fakeRevocationStore) IsRevoked(_ context.Context, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return true, s.failErr
	}
	_, ok := s.entries[tokenHash]
	return ok, nil
}

func (s *fakeRevocationStore) ttlFor(tokenHash string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ttl, ok := s.entries[tokenHash]
	return ttl, ok
}

type fakeAdminUsers struct {
	users      map[string]domain.AdminUser
	updateErr  error
	lastUpdate string
}

func newFakeAdminUsers() *fakeAdminUsers {
	return &fakeAdminUsers{users: map[string]domain.AdminUser{}}
}

func (r *fakeAdminUsers) GetByUsername(_ context.Context, username string) (*domain.AdminUser, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *fakeAdminUsers) UpdatePasswordHash(_ context.Context, username, passwordHash string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	user, ok := r.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	r.users[username] = user
	r.lastUpdate = passwordHash
	return nil
}

type fakeExpirationRepo struct {
	records map[string]domain.ExpirationRecord
	listErr error
	markErr error
	deleted []string
}

func newFakeExpirationRepo() *fakeExpirationRepo {
	return &fakeExpirationRepo{records: map[string]domain.ExpirationRecord{}}
}

func (r *fakeExpirationRepo) Upsert(_ context.Context, record domain.ExpirationRecord) error {
	r.records[record.AccountID] = record
	return nil
}

func (r *fakeExpirationRepo) GetByAccountID(_ context.Context, accountID string) (*domain.ExpirationRecord, error) {
	record, ok := r.records[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &record, nil
}

func (r *fakeExpirationRepo) ListAll(_ context.Context) ([]domain.ExpirationRecord, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	records := make([]domain.ExpirationRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	return records, nil
}

func (r *fakeExpirationRepo) ListUnprocessed(ctx context.Context) ([]domain.ExpirationRecord, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	pending := all[:0]
	for _, record := range all {
		if !record.Processed {
			pending = append(pending, record)
		}
	}
	return pending, nil
}

func (r *fakeExpirationRepo) MarkProcessed(_ context.Context, accountID string) error {
	if r.markErr != nil {
		return r.markErr
	}
	record, ok := r.records[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	record.Processed = true
	r.records[accountID] = record
	return nil
}

func (r *fakeExpirationRepo) Delete(_ context.Context, accountID string) error {
	if _, ok := r.records[accountID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.records, accountID)
	r.deleted = append(r.deleted, accountID)
	return nil
}

type fakeAccountRepo struct {
	accounts map[string]domain.RemoteAccount
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[string]domain.RemoteAccount{}}
}

func (r *fakeAccountRepo) Upsert(_ context.Context, account domain.RemoteAccount) error {
	r.accounts[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) UpsertAll(ctx context.Context, accounts []domain.RemoteAccount) error {
	for _, account := range accounts {
		if err := r.Upsert(ctx, account); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.RemoteAccount, error) {
	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

func (r *fakeAccountRepo) ListAll(_ context.Context) ([]domain.RemoteAccount, error) {
	accounts := make([]domain.RemoteAccount, 0, len(r.accounts))
	for _, account := range r.accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

var errGatewayDown = errors.New("gateway down")

type fakeGateway struct {
	accounts     map[string]domain.RemoteAccount
	failErr      error
	disableCalls int
}

func newFakeGateway(accounts ...domain.RemoteAccount) *fakeGateway {
	byID := make(map[string]domain.RemoteAccount, len(accounts))
	for _, account := range accounts {
		byID[account.ID] = account
	}
	return &fakeGateway{accounts: byID}
}

func (g *fakeGateway) GetAccount(_ context.Context, accountID string) (*domain.RemoteAccount, error) {
	if g.failErr != nil {
		return nil, g.failErr
	}
	account, ok := g.accounts[accountID]
	if !ok {
		return nil, errors.New("remote account not found")
	}
	return &account, nil
}

func (g *fakeGateway) ListAccounts(_ context.Context) ([]domain.RemoteAccount, error) {
	if g.failErr != nil {
		return nil, g.failErr
	}
	accounts := make([]domain.RemoteAccount, 0, len(g.accounts))
	for _, account := range g.accounts {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (g *fakeGateway) SetDisabled(_ context.Context, accountID string, disabled bool) (*domain.RemoteAccount, error) {
	g.disableCalls++
	if g.failErr != nil {
		return nil, g.failErr
	}
	account, ok := g.accounts[accountID]
	if !ok {
		return nil, errors.New("remote account not found")
	}
	account.Policy.IsDisabled = disabled
	g.accounts[accountID] = account
	return &account, nil
}

type fakeEvents struct {
	disabled []domain.AccountDisabledEvent
	expiry   []domain.ExpirationScheduledEvent
	revoked  []domain.SessionRevokedEvent
}

func (e *fakeEvents) PublishAccountDisabled(_ context.Context, event domain.AccountDisabledEvent) error {
	e.disabled = append(e.disabled, event)
	return nil
}

func (e *fakeEvents) PublishExpirationScheduled(_ context.Context, event domain.ExpirationScheduledEvent) error {
	e.expiry = append(e.expiry, event)
	return nil
}

func (e *fakeEvents) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	e.revoked = append(e.revoked, event)
	return nil
}

func enabledAccount(id, name string) domain.RemoteAccount {
	return domain.RemoteAccount{ID: id, Name: name, Policy: domain.DefaultAccountPolicy()}
}
