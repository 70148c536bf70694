package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisKVClient struct {
	values     map[string]string
	lastSetKey string
	lastSetTTL time.Duration
	lastDel    []string

	setErr error
	getErr error
	delErr error
}

func newMockRedisKVClient() *mockRedisKVClient {
	return &mockRedisKVClient{values: make(map[string]string)}
}

func (m *mockRedisKVClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastSetKey = key
	m.lastSetTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	m.values[key], _ = value.(string)
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKVClient) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	v, ok := m.values[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(v)
	return cmd
}

func (m *mockRedisKVClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	cmd := redis.NewIntCmd(ctx)
	if m.delErr != nil {
		cmd.SetErr(m.delErr)
		return cmd
	}
	for _, k := range keys {
		delete(m.values, k)
	}
	cmd.SetVal(int64(len(keys)))
	return cmd
}

func TestMemoryRefreshTokenStore_Basics(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &memoryRefreshTokenStore{items: make(map[string]refreshEntry), now: func() time.Time { return now }}

	if _, ok, err := store.Owner(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing token false,nil; got %v,%v", ok, err)
	}

	if err := store.Store(ctx, "jti-1", "u1", time.Minute); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	owner, ok, err := store.Owner(ctx, "jti-1")
	if err != nil || !ok || owner != "u1" {
		t.Fatalf("expected owner u1, got %q,%v,%v", owner, ok, err)
	}

	now = now.Add(time.Minute)
	if _, ok, err := store.Owner(ctx, "jti-1"); err != nil || ok {
		t.Fatalf("expected token expired, got %v,%v", ok, err)
	}
}

func TestMemoryRefreshTokenStore_RevokeAndEmptyJTI(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRefreshTokenStore()
	if err := store.Store(ctx, "", "u1", time.Minute); err != nil {
		t.Fatalf("empty jti store should be no-op, got %v", err)
	}
	if err := store.Store(ctx, "jti-2", "u1", time.Minute); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := store.Revoke(ctx, "jti-2"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if _, ok, err := store.Owner(ctx, "jti-2"); err != nil || ok {
		t.Fatalf("expected revoked token absent, got %v,%v", ok, err)
	}
}

func TestRedisRefreshTokenStore_Basics(t *testing.T) {
	ctx := context.Background()
	mock := newMockRedisKVClient()
	store := &redisRefreshTokenStore{client: mock, prefix: "auth:refresh:", timeout: time.Second}

	if err := store.Store(ctx, " j1 ", "u1", 0); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if mock.lastSetKey != "auth:refresh:j1" {
		t.Fatalf("unexpected key, got %q", mock.lastSetKey)
	}
	if mock.lastSetTTL != defaultRefreshTTL {
		t.Fatalf("expected TTL fallback, got %v", mock.lastSetTTL)
	}

	owner, ok, err := store.Owner(ctx, " j1 ")
	if err != nil || !ok || owner != "u1" {
		t.Fatalf("expected owner u1, got %q,%v,%v", owner, ok, err)
	}

	if err := store.Revoke(ctx, " j1 "); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if len(mock.lastDel) != 1 || mock.lastDel[0] != "auth:refresh:j1" {
		t.Fatalf("unexpected del key: %+v", mock.lastDel)
	}
	if _, ok, err := store.Owner(ctx, "j1"); err != nil || ok {
		t.Fatalf("expected revoked token absent (redis.Nil), got %v,%v", ok, err)
	}
}

func TestRedisRefreshTokenStore_ErrorPathsAndEmptyJTI(t *testing.T) {
	ctx := context.Background()
	mock := newMockRedisKVClient()
	mock.setErr = errors.New("set failed")
	mock.getErr = errors.New("get failed")
	mock.delErr = errors.New("del failed")
	store := &redisRefreshTokenStore{client: mock, prefix: "auth:refresh:", timeout: time.Second}

	if err := store.Store(ctx, "", "u1", time.Minute); err != nil {
		t.Fatalf("empty jti store should be no-op, got %v", err)
	}
	if _, ok, err := store.Owner(ctx, ""); err != nil || ok {
		t.Fatalf("empty jti owner should be false,nil; got %v,%v", ok, err)
	}
	if err := store.Revoke(ctx, ""); err != nil {
		t.Fatalf("empty jti revoke should be no-op, got %v", err)
	}

	if err := store.Store(ctx, "j2", "u1", time.Minute); err == nil {
		t.Fatalf("expected store error")
	}
	if _, _, err := store.Owner(ctx, "j2"); err == nil {
		t.Fatalf("expected get error")
	}
	if err := store.Revoke(ctx, "j2"); err == nil {
		t.Fatalf("expected revoke error")
	}
}
