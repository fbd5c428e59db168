package db

import (
	"errors"
	"strings"

	"github.com/fuboru/panel-backend/config"
	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/fuboru/panel-backend/pkg/logger"
	"github.com/fuboru/panel-backend/pkg/util"
	"gorm.io/gorm"
)

// Models lists every persisted model in migration order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Category{},
		&model.Brand{},
		&model.Product{},
		&model.Social{},
		&model.ProductBrand{},
		&model.BrandType{},
		&model.Certificate{},
		&model.StorageCleanup{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB runs migrations against the given connection.
func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed bootstraps the first administrator from configuration.
func Seed(cfg *config.AuthConfig) error {
	return SeedAdmin(DB, cfg)
}

// SeedAdmin creates the configured admin account when the users table is
// empty. It is a no-op when no admin credentials are configured.
func SeedAdmin(conn *gorm.DB, cfg *config.AuthConfig) error {
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" || cfg.AdminPassword == "" {
		logger.Debug("Admin bootstrap skipped: no credentials configured")
		return nil
	}

	var count int64
	if err := conn.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Users already present, skipping admin bootstrap", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	hash, err := util.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	admin := &model.User{
		Email:        strings.ToLower(email),
		Name:         cfg.AdminName,
		PasswordHash: hash,
	}
	if err := conn.Create(admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	logger.Info("Admin account bootstrapped", map[string]interface{}{
		"user_id": admin.ID,
		"email":   admin.Email,
	})
	return nil
}
