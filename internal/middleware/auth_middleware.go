package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/fuboru/panel-backend/internal/errors"
	"github.com/fuboru/panel-backend/internal/session"
	"github.com/fuboru/panel-backend/pkg/util"
	"github.com/gin-gonic/gin"
)

// Context keys for the signed-in operator
const (
	IdentityKey  = "identity"
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

// SessionLoader resolves an access token into an identity.
type SessionLoader interface {
	Load(ctx context.Context, token string) (*session.Identity, error)
}

type AuthMiddleware struct {
	sessions SessionLoader
}

func NewAuthMiddleware(sessions SessionLoader) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate gates a route behind a valid, unrevoked access token.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var token string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Malformed authorization header")
				c.Abort()
				return
			}
			token = parts[1]
		} else {
			// Browsers cannot set headers on websocket upgrades
			token = c.Query("token")
			if token == "" {
				log.Warn("Missing authorization header", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.Unauthorized(c, "")
				c.Abort()
				return
			}
		}

		identity, err := m.sessions.Load(c.Request.Context(), token)
		if err != nil {
			log.Warn("Token rejected", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			switch {
			case stderrors.Is(err, util.ErrExpiredToken):
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenExpired, "Session has expired")
			case stderrors.Is(err, session.ErrSessionRevoked):
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenRevoked, "Session has been signed out")
			case stderrors.Is(err, util.ErrInvalidToken), stderrors.Is(err, session.ErrNotAccessToken):
				errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid access token")
			default:
				errors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(IdentityKey, identity)
		c.Set(UserIDKey, identity.UserID)
		c.Set(UserEmailKey, identity.Email)

		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id":    identity.UserID,
			"session_id": identity.SessionID,
		})

		c.Next()
	}
}

// GetIdentity extracts the signed-in identity from context
func GetIdentity(c *gin.Context) (*session.Identity, bool) {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}
	identity, ok := value.(*session.Identity)
	return identity, ok
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}
