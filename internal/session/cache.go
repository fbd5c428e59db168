package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fuboru/panel-backend/pkg/logger"
	"github.com/fuboru/panel-backend/pkg/util"
)

var (
	ErrSessionRevoked = errors.New("session revoked")
	ErrNotAccessToken = errors.New("token is not an access token")
	ErrCacheRunning   = errors.New("session cache already started")
)

// Identity is the authenticated operator behind one access token.
type Identity struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	SessionID string    `json:"session_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

const (
	// Cached identities are checked against the revoker again after this
	// long, so a lost event cannot keep a revoked session alive.
	defaultRecheckAfter = time.Minute
	// Tombstones outlive any Load that was in flight when they were written.
	defaultTombstoneTTL = 10 * time.Minute
	sweepInterval       = time.Minute
)

// Cache is the single source of truth for who is signed in. Identities
// are added when a token is first loaded and evicted by pushed events.
type Cache struct {
	secret  string
	revoker Revoker
	bus     Bus

	recheckAfter time.Duration
	tombstoneTTL time.Duration
	now          func() time.Time

	mu       sync.RWMutex
	sessions map[string]cachedSession
	// signedOut maps session id to tombstone expiry.
	signedOut map[string]time.Time
	// deleted maps user id to the revocation cutoff.
	deleted map[string]time.Time

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

type cachedSession struct {
	identity   Identity
	verifiedAt time.Time
}

func NewCache(secret string, revoker Revoker, bus Bus) *Cache {
	return &Cache{
		secret:       secret,
		revoker:      revoker,
		bus:          bus,
		recheckAfter: defaultRecheckAfter,
		tombstoneTTL: defaultTombstoneTTL,
		now:          time.Now,
		sessions:     make(map[string]cachedSession),
		signedOut:    make(map[string]time.Time),
		deleted:      make(map[string]time.Time),
	}
}

// Load resolves an access token into an identity.
func (c *Cache) Load(ctx context.Context, token string) (*Identity, error) {
	claims, err := util.ValidateToken(token, c.secret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.TokenTypeAccess {
		return nil, ErrNotAccessToken
	}
	sessionID := claims.SessionID()

	identity := Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Name:      claims.Name,
		SessionID: sessionID,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	// Refreshed tokens share the session id, so the cached entry takes the
	// newest timestamps.
	c.mu.Lock()
	if cached, ok := c.sessions[sessionID]; ok && c.now().Sub(cached.verifiedAt) < c.recheckAfter {
		c.sessions[sessionID] = cachedSession{identity: identity, verifiedAt: cached.verifiedAt}
		c.mu.Unlock()
		return &identity, nil
	}
	c.mu.Unlock()

	verifiedAt := c.now()
	revoked, err := c.revoker.IsSessionRevoked(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !revoked {
		revoked, err = c.revoker.IsUserRevoked(ctx, identity.UserID, identity.IssuedAt)
		if err != nil {
			return nil, err
		}
	}
	if revoked {
		c.evictSession(sessionID)
		return nil, ErrSessionRevoked
	}

	// Events applied while the revoker was consulted win over its answer.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tombstonedLocked(identity) {
		delete(c.sessions, sessionID)
		return nil, ErrSessionRevoked
	}
	c.sessions[sessionID] = cachedSession{identity: identity, verifiedAt: verifiedAt}

	return &identity, nil
}

func (c *Cache) tombstonedLocked(identity Identity) bool {
	if _, ok := c.signedOut[identity.SessionID]; ok {
		return true
	}
	cutoff, ok := c.deleted[identity.UserID]
	return ok && !identity.IssuedAt.After(cutoff)
}

// Apply folds one auth event into the cache.
func (c *Cache) Apply(event Event) {
	switch event.Type {
	case EventSignedOut:
		c.mu.Lock()
		c.signedOut[event.SessionID] = c.now().Add(c.tombstoneTTL)
		c.mu.Unlock()
		c.evictSession(event.SessionID)
	case EventUserDeleted:
		at := event.At
		if at.IsZero() {
			at = c.now()
		}
		c.mu.Lock()
		if at.After(c.deleted[event.UserID]) {
			c.deleted[event.UserID] = at
		}
		c.mu.Unlock()
		c.evictUser(event.UserID)
	}
}

func (c *Cache) evictSession(sessionID string) {
	c.mu.Lock()
	delete(c.sessions, sessionID)
	c.mu.Unlock()
}

func (c *Cache) evictUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, cached := range c.sessions {
		if cached.identity.UserID == userID {
			delete(c.sessions, id)
		}
	}
}

// sweep drops expired identities and tombstones.
func (c *Cache) sweep() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, cached := range c.sessions {
		if !cached.identity.ExpiresAt.IsZero() && now.After(cached.identity.ExpiresAt) {
			delete(c.sessions, id)
		}
	}
	for id, until := range c.signedOut {
		if now.After(until) {
			delete(c.signedOut, id)
		}
	}
	for id, cutoff := range c.deleted {
		if now.After(cutoff.Add(c.tombstoneTTL)) {
			delete(c.deleted, id)
		}
	}
}

// Len returns the number of cached sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Start subscribes the cache to the event bus. Events are applied and
// expired entries swept on one goroutine until Stop is called or ctx is done.
func (c *Cache) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if c.cancel != nil {
		return ErrCacheRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	events, err := c.bus.Subscribe(runCtx)
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				c.Apply(event)
				logger.Debug("Auth event applied to session cache", map[string]interface{}{
					"type":    event.Type,
					"user_id": event.UserID,
				})
			case <-ticker.C:
				c.sweep()
			}
		}
	}()

	logger.Info("Session cache started")
	return nil
}

// Stop unsubscribes from the bus and waits for the event loop to exit.
func (c *Cache) Stop() {
	c.lifecycle.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.lifecycle.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logger.Info("Session cache stopped")
}
