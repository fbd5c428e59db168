package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "product-bucket", cfg.Storage.ProductBucket)
	assert.Equal(t, "certificate-bucket", cfg.Storage.CertificateBucket)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTokenExpiry)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Auth.AllowSignup)
	assert.Equal(t, "*/15 * * * *", cfg.Scheduler.CleanupSpec)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRY", "30m")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTokenExpiry)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_RejectsUnknownStorageDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "ftp")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseDuration_Fallback(t *testing.T) {
	assert.Equal(t, 5*time.Minute, parseDuration("not-a-duration", 5*time.Minute))
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "panel", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=panel sslmode=disable", c.DSN())
}
