package session

import (
	"context"
	"sync"
	"time"

	panelredis "github.com/fuboru/panel-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
)

// Revoker records signed-out sessions and deleted users so their tokens
// are refused until they would have expired anyway.
type Revoker interface {
	RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
	RevokeUser(ctx context.Context, userID string, at time.Time, ttl time.Duration) error
	IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error)
}

type RedisRevoker struct {
	client *redis.Client
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client}
}

func (r *RedisRevoker) RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	return panelredis.RevokeSession(ctx, r.client, sessionID, ttl)
}

func (r *RedisRevoker) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	return panelredis.IsSessionRevoked(ctx, r.client, sessionID)
}

func (r *RedisRevoker) RevokeUser(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	return panelredis.RevokeUser(ctx, r.client, userID, at, ttl)
}

func (r *RedisRevoker) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	cutoff, ok, err := panelredis.UserRevokedAt(ctx, r.client, userID)
	if err != nil || !ok {
		return false, err
	}
	return !issuedAt.After(cutoff), nil
}

type memoryEntry struct {
	at        time.Time
	expiresAt time.Time
}

// MemoryRevoker keeps revocations in process memory.
type MemoryRevoker struct {
	mu       sync.Mutex
	sessions map[string]memoryEntry
	users    map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryRevoker() *MemoryRevoker {
	return &MemoryRevoker{
		sessions: make(map[string]memoryEntry),
		users:    make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (r *MemoryRevoker) RevokeSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.sessions[sessionID] = memoryEntry{at: now, expiresAt: now.Add(ttl)}
	return nil
}

func (r *MemoryRevoker) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sessionID]
	if !ok {
		return false, nil
	}
	if r.now().After(entry.expiresAt) {
		delete(r.sessions, sessionID)
		return false, nil
	}
	return true, nil
}

func (r *MemoryRevoker) RevokeUser(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = memoryEntry{at: at.Truncate(time.Second), expiresAt: r.now().Add(ttl)}
	return nil
}

func (r *MemoryRevoker) IsUserRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.users[userID]
	if !ok {
		return false, nil
	}
	if r.now().After(entry.expiresAt) {
		delete(r.users, userID)
		return false, nil
	}
	return !issuedAt.After(entry.at), nil
}
