package session

import (
	"context"
	"testing"
	"time"

	"github.com/fuboru/panel-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "session-test-secret"

func issue(t *testing.T, userID, sessionID string) string {
	t.Helper()
	tokens, err := util.GenerateTokenPair(userID, userID+"@example.com", "Tester", sessionID, testSecret, time.Hour, 24*time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func TestCache_Load(t *testing.T) {
	cache := NewCache(testSecret, NewMemoryRevoker(), NewLocalBus())
	ctx := context.Background()

	token := issue(t, "user-1", "session-1")
	identity, err := cache.Load(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "session-1", identity.SessionID)
	assert.Equal(t, 1, cache.Len())

	again, err := cache.Load(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, identity.SessionID, again.SessionID)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_LoadRejects(t *testing.T) {
	revoker := NewMemoryRevoker()
	cache := NewCache(testSecret, revoker, NewLocalBus())
	ctx := context.Background()

	t.Run("Garbage token", func(t *testing.T) {
		_, err := cache.Load(ctx, "not-a-token")
		assert.ErrorIs(t, err, util.ErrInvalidToken)
	})

	t.Run("Refresh token", func(t *testing.T) {
		tokens, err := util.GenerateTokenPair("u", "u@example.com", "", "s", testSecret, time.Hour, time.Hour)
		require.NoError(t, err)
		_, err = cache.Load(ctx, tokens.RefreshToken)
		assert.ErrorIs(t, err, ErrNotAccessToken)
	})

	t.Run("Revoked session", func(t *testing.T) {
		require.NoError(t, revoker.RevokeSession(ctx, "revoked-session", time.Hour))
		_, err := cache.Load(ctx, issue(t, "user-2", "revoked-session"))
		assert.ErrorIs(t, err, ErrSessionRevoked)
	})

	t.Run("Revoked user", func(t *testing.T) {
		token := issue(t, "user-3", "session-3")
		require.NoError(t, revoker.RevokeUser(ctx, "user-3", time.Now().Add(time.Second), time.Hour))
		_, err := cache.Load(ctx, token)
		assert.ErrorIs(t, err, ErrSessionRevoked)
	})
}

func TestCache_Apply(t *testing.T) {
	cache := NewCache(testSecret, NewMemoryRevoker(), NewLocalBus())
	ctx := context.Background()

	for _, s := range []string{"a", "b"} {
		_, err := cache.Load(ctx, issue(t, "user-1", s))
		require.NoError(t, err)
	}
	_, err := cache.Load(ctx, issue(t, "user-2", "c"))
	require.NoError(t, err)
	require.Equal(t, 3, cache.Len())

	cache.Apply(Event{Type: EventSignedIn, UserID: "user-1", SessionID: "a"})
	assert.Equal(t, 3, cache.Len())

	cache.Apply(Event{Type: EventSignedOut, UserID: "user-2", SessionID: "c"})
	assert.Equal(t, 2, cache.Len())

	cache.Apply(Event{Type: EventUserDeleted, UserID: "user-1"})
	assert.Zero(t, cache.Len())
}

func TestCache_StartStop(t *testing.T) {
	bus := NewLocalBus()
	cache := NewCache(testSecret, NewMemoryRevoker(), bus)
	ctx := context.Background()

	require.NoError(t, cache.Start(ctx))
	assert.ErrorIs(t, cache.Start(ctx), ErrCacheRunning)

	_, err := cache.Load(ctx, issue(t, "user-1", "session-1"))
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, Event{Type: EventSignedOut, UserID: "user-1", SessionID: "session-1"}))
	assert.Eventually(t, func() bool { return cache.Len() == 0 }, time.Second, 10*time.Millisecond)

	cache.Stop()
	cache.Stop()

	_, err = cache.Load(ctx, issue(t, "user-1", "session-2"))
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, Event{Type: EventSignedOut, UserID: "user-1", SessionID: "session-2"}))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, cache.Len())
}

// blockingRevoker holds IsSessionRevoked open until release is closed.
type blockingRevoker struct {
	*MemoryRevoker
	entered chan struct{}
	release chan struct{}
}

func (r *blockingRevoker) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	revoked, err := r.MemoryRevoker.IsSessionRevoked(ctx, sessionID)
	r.entered <- struct{}{}
	<-r.release
	return revoked, err
}

func TestCache_SignOutDuringLoad(t *testing.T) {
	revoker := &blockingRevoker{
		MemoryRevoker: NewMemoryRevoker(),
		entered:       make(chan struct{}, 1),
		release:       make(chan struct{}),
	}
	cache := NewCache(testSecret, revoker, NewLocalBus())
	ctx := context.Background()
	token := issue(t, "user-1", "session-1")

	errs := make(chan error, 1)
	go func() {
		_, err := cache.Load(ctx, token)
		errs <- err
	}()
	<-revoker.entered

	require.NoError(t, revoker.RevokeSession(ctx, "session-1", time.Hour))
	cache.Apply(Event{Type: EventSignedOut, UserID: "user-1", SessionID: "session-1"})
	close(revoker.release)

	assert.ErrorIs(t, <-errs, ErrSessionRevoked)
	assert.Zero(t, cache.Len())

	go func() { <-revoker.entered }()
	_, err := cache.Load(ctx, token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestCache_UserDeletedDuringLoad(t *testing.T) {
	revoker := &blockingRevoker{
		MemoryRevoker: NewMemoryRevoker(),
		entered:       make(chan struct{}, 1),
		release:       make(chan struct{}),
	}
	cache := NewCache(testSecret, revoker, NewLocalBus())
	ctx := context.Background()
	token := issue(t, "user-1", "session-1")

	errs := make(chan error, 1)
	go func() {
		_, err := cache.Load(ctx, token)
		errs <- err
	}()
	<-revoker.entered

	cache.Apply(Event{Type: EventUserDeleted, UserID: "user-1", At: time.Now().Add(time.Second)})
	close(revoker.release)

	assert.ErrorIs(t, <-errs, ErrSessionRevoked)
	assert.Zero(t, cache.Len())
}

func TestCache_RechecksRevokerWhenEventIsLost(t *testing.T) {
	revoker := NewMemoryRevoker()
	cache := NewCache(testSecret, revoker, NewLocalBus())
	now := time.Now()
	cache.now = func() time.Time { return now }
	ctx := context.Background()
	token := issue(t, "user-1", "session-1")

	_, err := cache.Load(ctx, token)
	require.NoError(t, err)

	// Revoked in the store, but no event reaches this cache.
	require.NoError(t, revoker.RevokeSession(ctx, "session-1", time.Hour))

	_, err = cache.Load(ctx, token)
	require.NoError(t, err, "served from cache before the recheck interval")

	now = now.Add(defaultRecheckAfter)
	_, err = cache.Load(ctx, token)
	assert.ErrorIs(t, err, ErrSessionRevoked)
	assert.Zero(t, cache.Len())
}

func TestCache_Sweep(t *testing.T) {
	cache := NewCache(testSecret, NewMemoryRevoker(), NewLocalBus())
	now := time.Now()
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := cache.Load(ctx, issue(t, "user-1", "session-1"))
	require.NoError(t, err)
	cache.Apply(Event{Type: EventSignedOut, UserID: "user-2", SessionID: "session-2"})
	cache.Apply(Event{Type: EventUserDeleted, UserID: "user-3", At: now})

	cache.sweep()
	assert.Equal(t, 1, cache.Len())

	now = now.Add(2 * time.Hour)
	cache.sweep()
	assert.Zero(t, cache.Len())
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	assert.Empty(t, cache.signedOut)
	assert.Empty(t, cache.deleted)
}
