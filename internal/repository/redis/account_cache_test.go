package redis

import (
	"context"
	"testing"
	"time"

	"github.com/hzwnrw/jellyfin-manager/internal/core/domain"
)

func testAccount(id, name string, disabled bool) domain.RemoteAccount {
	account := domain.RemoteAccount{ID: id, Name: name, Policy: domain.DefaultAccountPolicy()}
	account.Policy.IsDisabled = disabled
	return account
}

func TestAccountCacheRepository_ListingRoundTrip(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewAccountCacheRepository(client, "accounts", time.Minute)

	ctx := context.Background()

	_, hit, err := cache.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll returned error: %v", err)
	}
	if hit {
		t.Fatalf("expected cold cache miss")
	}

	stored := []domain.RemoteAccount{
		testAccount("u1", "alice", false),
		testAccount("u2", "bob", true),
	}
	if err := cache.SetAll(ctx, stored); err != nil {
		t.Fatalf("SetAll returned error: %v", err)
	}

	accounts, hit, err := cache.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll returned error: %v", err)
	}
	if !hit {
		t.Fatalf("expected cache hit after SetAll")
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[1].Name != "bob" || !accounts[1].Policy.IsDisabled {
		t.Fatalf("unexpected second account: %+v", accounts[1])
	}

	if err := cache.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll returned error: %v", err)
	}
	if _, hit, _ := cache.GetAll(ctx); hit {
		t.Fatalf("expected miss after InvalidateAll")
	}
}

func TestAccountCacheRepository_SingleAccount(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewAccountCacheRepository(client, "accounts", time.Minute)

	ctx := context.Background()

	if err := cache.Set(ctx, testAccount("u1", "alice", false)); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	account, hit, err := cache.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if !hit {
		t.Fatalf("expected cache hit")
	}
	if account.Name != "alice" {
		t.Fatalf("expected alice, got %s", account.Name)
	}

	if err := cache.Invalidate(ctx, "u1"); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	if _, hit, _ := cache.GetByID(ctx, "u1"); hit {
		t.Fatalf("expected miss after Invalidate")
	}
}

func TestAccountCacheRepository_EntriesExpire(t *testing.T) {
	client, server := newTestRedis(t)
	cache := NewAccountCacheRepository(client, "accounts", time.Minute)

	ctx := context.Background()
	if err := cache.SetAll(ctx, []domain.RemoteAccount{testAccount("u1", "alice", false)}); err != nil {
		t.Fatalf("SetAll returned error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	if _, hit, _ := cache.GetAll(ctx); hit {
		t.Fatalf("expected listing to expire with its ttl")
	}
}

func TestAccountCacheRepository_InvalidInput(t *testing.T) {
	client, _ := newTestRedis(t)
	cache := NewAccountCacheRepository(client, "accounts", time.Minute)

	if _, _, err := cache.GetByID(context.Background(), " "); err == nil {
		t.Fatalf("expected error for blank account id")
	}
	if err := cache.Set(context.Background(), domain.RemoteAccount{}); err == nil {
		t.Fatalf("expected error for account without id")
	}
	if err := cache.Invalidate(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty account id")
	}
}
