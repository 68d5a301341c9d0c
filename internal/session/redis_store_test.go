package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestNewRedisStore_BadURL(t *testing.T) {
	if _, err := NewRedisStore("not-a-redis-url"); err == nil {
		t.Fatal("expected an error for a malformed url")
	}
}

func TestNewRedisStore_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisStore("redis://" + addr); err == nil {
		t.Fatal("expected an error when redis is down")
	}
}

func TestRevokeAndCheck(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "tok-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("fresh token reported as revoked")
	}

	if err := store.Revoke(ctx, "tok-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if !mr.Exists("session:revoked:tok-1") {
		t.Error("expected revocation key in redis")
	}
	if ttl := mr.TTL("session:revoked:tok-1"); ttl <= 0 || ttl > time.Hour {
		t.Errorf("unexpected ttl %v", ttl)
	}

	revoked, err = store.IsRevoked(ctx, "tok-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Error("expected token to be revoked")
	}

	revoked, _ = store.IsRevoked(ctx, "tok-2")
	if revoked {
		t.Error("revoking one token must not affect another")
	}
}

func TestRevocationExpiresWithToken(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Revoke(ctx, "tok-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	revoked, err := store.IsRevoked(ctx, "tok-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Error("revocation should lapse once the token itself has expired")
	}
}

func TestRevokeAlreadyExpired(t *testing.T) {
	store, mr := setupTestRedis(t)

	if err := store.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if mr.Exists("session:revoked:old") {
		t.Error("expired token should not be stored")
	}
}

func TestIsRevoked_RedisDown(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	if _, err := store.IsRevoked(context.Background(), "tok-1"); err == nil {
		t.Error("expected an error when redis is unavailable")
	}
}

func TestPing(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}

	mr.Close()
	if err := store.Ping(ctx); err == nil {
		t.Error("Ping() should fail once redis is gone")
	}
}
