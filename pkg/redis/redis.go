package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fuboru/panel-backend/config"
	"github.com/fuboru/panel-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		return client.Close()
	}
	return nil
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("revoked:session:%s", sessionID)
}

func userKey(userID string) string {
	return fmt.Sprintf("revoked:user:%s", userID)
}

// RevokeSession marks a session id as revoked until expiry elapses.
func RevokeSession(ctx context.Context, c *redis.Client, sessionID string, expiry time.Duration) error {
	if expiry <= 0 {
		return nil
	}
	if err := c.Set(ctx, sessionKey(sessionID), "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to revoke session", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return err
	}

	logger.Debug("Session revoked", map[string]interface{}{
		"session_id": sessionID,
		"expiry":     expiry.String(),
	})
	return nil
}

// IsSessionRevoked checks if a session id is in the revocation list
func IsSessionRevoked(ctx context.Context, c *redis.Client, sessionID string) (bool, error) {
	val, err := c.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check session revocation", err, nil)
		return false, err
	}
	return val == "revoked", nil
}

// RevokeUser rejects every token of the user issued at or before at.
func RevokeUser(ctx context.Context, c *redis.Client, userID string, at time.Time, expiry time.Duration) error {
	err := c.Set(ctx, userKey(userID), strconv.FormatInt(at.Unix(), 10), expiry).Err()
	if err != nil {
		logger.Error("Failed to revoke user sessions", err, map[string]interface{}{
			"user_id": userID,
		})
	}
	return err
}

// UserRevokedAt returns the cutoff recorded by RevokeUser, if any.
func UserRevokedAt(ctx context.Context, c *redis.Client, userID string) (time.Time, bool, error) {
	val, err := c.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt revocation entry for user %s: %w", userID, err)
	}
	return time.Unix(unix, 0), true, nil
}
