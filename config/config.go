package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// StorageConfig describes where product and certificate images live.
// Driver is "s3" or "memory".
type StorageConfig struct {
	Driver            string
	Region            string
	ProductBucket     string
	CertificateBucket string
	AccessKeyID       string
	SecretAccessKey   string
	BaseURL           string // CloudFront or S3 direct URL
	MaxUploadBytes    int64
}

type RedisConfig struct {
	Enabled     bool
	Host        string
	Port        string
	Password    string
	DB          int
	AuthChannel string
}

type AuthConfig struct {
	AllowSignup   bool
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

type SchedulerConfig struct {
	CleanupSpec string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "panel"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:             getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry:  parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "1h"), time.Hour),
			RefreshTokenExpiry: parseDuration(getEnv("JWT_REFRESH_TOKEN_EXPIRY", "168h"), 168*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		},
		Storage: StorageConfig{
			Driver:            getEnv("STORAGE_DRIVER", "s3"),
			Region:            getEnv("AWS_REGION", "ap-southeast-3"),
			ProductBucket:     getEnv("STORAGE_PRODUCT_BUCKET", "product-bucket"),
			CertificateBucket: getEnv("STORAGE_CERTIFICATE_BUCKET", "certificate-bucket"),
			AccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:           getEnv("AWS_S3_BASE_URL", ""),
			MaxUploadBytes:    parseInt64(getEnv("STORAGE_MAX_UPLOAD_BYTES", "5242880"), 5<<20),
		},
		Redis: RedisConfig{
			Enabled:     parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnv("REDIS_PORT", "6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          int(parseInt64(getEnv("REDIS_DB", "0"), 0)),
			AuthChannel: getEnv("REDIS_AUTH_CHANNEL", "panel:auth-events"),
		},
		Auth: AuthConfig{
			AllowSignup:   parseBool(getEnv("AUTH_ALLOW_SIGNUP", "false")),
			AdminName:     getEnv("ADMIN_NAME", "Administrator"),
			AdminEmail:    getEnv("ADMIN_EMAIL", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		Scheduler: SchedulerConfig{
			CleanupSpec: getEnv("SCHEDULER_CLEANUP_SPEC", "*/15 * * * *"),
		},
	}

	if config.Storage.Driver != "s3" && config.Storage.Driver != "memory" {
		return nil, fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt64(s string, fallback int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
