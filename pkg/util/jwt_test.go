package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-testing"

func TestGenerateTokenPair(t *testing.T) {
	tests := []struct {
		name          string
		userID        string
		email         string
		userName      string
		sessionID     string
		accessExpiry  time.Duration
		refreshExpiry time.Duration
	}{
		{
			name:          "Valid token generation",
			userID:        "5e7b2c1a-0000-4000-8000-000000000001",
			email:         "test@example.com",
			userName:      "Tester",
			sessionID:     "session-1",
			accessExpiry:  15 * time.Minute,
			refreshExpiry: 7 * 24 * time.Hour,
		},
		{
			name:          "Empty display name",
			userID:        "5e7b2c1a-0000-4000-8000-000000000002",
			email:         "admin@example.com",
			sessionID:     "session-2",
			accessExpiry:  time.Hour,
			refreshExpiry: 7 * 24 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := GenerateTokenPair(
				tt.userID,
				tt.email,
				tt.userName,
				tt.sessionID,
				testSecret,
				tt.accessExpiry,
				tt.refreshExpiry,
			)

			require.NoError(t, err)
			require.NotNil(t, tokens)
			assert.NotEmpty(t, tokens.AccessToken)
			assert.NotEmpty(t, tokens.RefreshToken)
			assert.NotEqual(t, tokens.AccessToken, tokens.RefreshToken)
			assert.WithinDuration(t, time.Now().Add(tt.accessExpiry), tokens.ExpiresAt, 5*time.Second)
		})
	}
}

func TestValidateToken(t *testing.T) {
	tokens, err := GenerateTokenPair(
		"user-123",
		"test@example.com",
		"Tester",
		"session-123",
		testSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		secret    string
		tokenType string
		wantErr   error
	}{
		{
			name:      "Valid access token",
			token:     tokens.AccessToken,
			secret:    testSecret,
			tokenType: TokenTypeAccess,
		},
		{
			name:      "Valid refresh token",
			token:     tokens.RefreshToken,
			secret:    testSecret,
			tokenType: TokenTypeRefresh,
		},
		{
			name:    "Invalid secret",
			token:   tokens.AccessToken,
			secret:  "wrong-secret",
			wantErr: ErrInvalidToken,
		},
		{
			name:    "Invalid token format",
			token:   "invalid.token.format",
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "Empty token",
			token:   "",
			secret:  testSecret,
			wantErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, claims)
			assert.Equal(t, "user-123", claims.UserID)
			assert.Equal(t, "test@example.com", claims.Email)
			assert.Equal(t, "Tester", claims.Name)
			assert.Equal(t, "session-123", claims.SessionID())
			assert.Equal(t, tt.tokenType, claims.TokenType)
		})
	}
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken(
		"user-1",
		"test@example.com",
		"Tester",
		"session-1",
		TokenTypeAccess,
		testSecret,
		time.Now().Add(-2*time.Hour),
		time.Hour,
	)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestTokenClaims(t *testing.T) {
	tokens, err := GenerateTokenPair(
		"user-42",
		"user@example.com",
		"User",
		"session-42",
		testSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
	require.NoError(t, err)

	claims, err := ValidateToken(tokens.AccessToken, testSecret)
	require.NoError(t, err)

	assert.Equal(t, "user-42", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.True(t, claims.IssuedAt.Before(claims.ExpiresAt.Time))
}

func TestDifferentSecrets(t *testing.T) {
	tokens, err := GenerateTokenPair(
		"user-1",
		"test@example.com",
		"Tester",
		"session-1",
		"secret1",
		15*time.Minute,
		7*24*time.Hour,
	)
	require.NoError(t, err)

	claims, err := ValidateToken(tokens.AccessToken, "secret2")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}
