package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestRevocationRepository_MarkAndCheck(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRevocationRepository(client, "blacklist_token")

	ctx := context.Background()
	ttl := 2 * time.Minute

	if err := repo.MarkRevoked(ctx, "hash-abc", "user_logout", ttl); err != nil {
		t.Fatalf("MarkRevoked returned error: %v", err)
	}

	revoked, err := repo.IsRevoked(ctx, "hash-abc")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if !revoked {
		t.Fatalf("expected token hash to be revoked")
	}

	remaining := server.TTL("blacklist_token:hash-abc")
	if remaining <= 0 || remaining > ttl {
		t.Fatalf("expected ttl within (0, %v], got %v", ttl, remaining)
	}
}

func TestRevocationRepository_EntryExpires(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRevocationRepository(client, "blacklist_token")

	ctx := context.Background()
	if err := repo.MarkRevoked(ctx, "hash-abc", "user_logout", time.Minute); err != nil {
		t.Fatalf("MarkRevoked returned error: %v", err)
	}

	server.FastForward(2 * time.Minute)

	revoked, err := repo.IsRevoked(ctx, "hash-abc")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if revoked {
		t.Fatalf("expected entry to expire with its ttl")
	}
}

func TestRevocationRepository_Miss(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRevocationRepository(client, "blacklist_token")

	revoked, err := repo.IsRevoked(context.Background(), "unknown-hash")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if revoked {
		t.Fatalf("expected unknown hash to be reported as not revoked")
	}
}

func TestRevocationRepository_FailsClosed(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewRevocationRepository(client, "blacklist_token")

	server.Close()

	revoked, err := repo.IsRevoked(context.Background(), "hash-abc")
	if err == nil {
		t.Fatalf("expected error when registry is unreachable")
	}
	if !revoked {
		t.Fatalf("expected unreachable registry to report revoked")
	}
}

func TestRevocationRepository_InvalidInput(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRevocationRepository(client, "blacklist_token")

	if err := repo.MarkRevoked(context.Background(), "", "reason", time.Minute); err == nil {
		t.Fatalf("expected error for empty token hash")
	}
	if err := repo.MarkRevoked(context.Background(), "hash", "reason", 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
	if _, err := repo.IsRevoked(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty token hash in IsRevoked")
	}
}
