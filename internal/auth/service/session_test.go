package service

import (
	"context"
	"os"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestSessionManager_IssueResolveRevoke(t *testing.T) {
	ctx := context.Background()
	m := NewSessionManager(time.Hour)

	token, err := m.Issue(ctx, "u1")
	assert.NilError(t, err)
	assert.Assert(t, token != "")

	userID, ok, err := m.Resolve(ctx, token)
	assert.NilError(t, err)
	assert.Assert(t, ok)
	assert.Equal(t, userID, "u1")

	assert.NilError(t, m.Revoke(ctx, token))
	_, ok, err = m.Resolve(ctx, token)
	assert.NilError(t, err)
	assert.Assert(t, !ok)
}

func TestSessionManager_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewSessionManager(time.Minute)
	m.now = func() time.Time { return now }

	stale, _ := m.Issue(ctx, "u1")
	now = now.Add(30 * time.Second)
	fresh, _ := m.Issue(ctx, "u2")
	now = now.Add(45 * time.Second)

	_, ok, _ := m.Resolve(ctx, stale)
	assert.Assert(t, !ok)

	userID, ok, _ := m.Resolve(ctx, fresh)
	assert.Assert(t, ok)
	assert.Equal(t, userID, "u2")

	now = now.Add(time.Minute)
	removed, err := m.Cleanup(ctx)
	assert.NilError(t, err)
	assert.Equal(t, removed, 1)
	assert.Equal(t, len(m.tokens), 0)
}

func TestSessionManager_DefaultTTL(t *testing.T) {
	m := NewSessionManager(0)
	assert.Equal(t, m.ttl, DefaultSessionTTL)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, addr, time.Minute)
	assert.NilError(t, err)
	defer store.Close()

	token, err := store.Issue(ctx, "u1")
	assert.NilError(t, err)

	userID, ok, err := store.Resolve(ctx, token)
	assert.NilError(t, err)
	assert.Assert(t, ok)
	assert.Equal(t, userID, "u1")

	assert.NilError(t, store.Revoke(ctx, token))
	_, ok, err = store.Resolve(ctx, token)
	assert.NilError(t, err)
	assert.Assert(t, !ok)
}
