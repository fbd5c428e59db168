package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword_StoredHash(t *testing.T) {
	hash, err := HashPassword("admin-password")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcryptCost, cost)
	assert.NotContains(t, hash, "admin-password")
}

func TestHashPassword_ByteLimit(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"Minimum accepted by the user form", "secret", nil},
		{"Exactly 72 bytes", strings.Repeat("a", 72), nil},
		{"73 bytes", strings.Repeat("a", 73), ErrPasswordTooLong},
		// 24 runes, 72 bytes.
		{"Multibyte at the limit", strings.Repeat("한", 24), nil},
		// 25 runes, 75 bytes.
		{"Multibyte over the limit", strings.Repeat("한", 25), ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, hash)
				return
			}
			require.NoError(t, err)
			assert.True(t, VerifyPassword(hash, tt.password))
		})
	}
}

// Sign-in compares the submitted password against the hash stored at
// user creation; emails are normalised but passwords are not.
func TestVerifyPassword_SignIn(t *testing.T) {
	stored, err := HashPassword("Password123")
	require.NoError(t, err)

	tests := []struct {
		name      string
		submitted string
		want      bool
	}{
		{"Exact password", "Password123", true},
		{"Different case", "password123", false},
		{"Surrounding whitespace", " Password123 ", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyPassword(stored, tt.submitted))
		})
	}
}

func TestVerifyPassword_CorruptStoredHash(t *testing.T) {
	assert.False(t, VerifyPassword("", "Password123"))
	assert.False(t, VerifyPassword("$2a$12$truncated", "Password123"))
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("Password123")
	require.NoError(t, err)
	second, err := HashPassword("Password123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
