package db

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupTestDB creates an in-memory SQLite database with foreign keys on.
// The pool is pinned to one connection so every query sees the same
// in-memory database.
func SetupTestDB() (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := conn.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate test database: %w", err)
	}

	return conn, nil
}

// CleanupTestDB cleans up the test database
func CleanupTestDB(conn *gorm.DB) {
	sqlDB, err := conn.DB()
	if err != nil {
		log.Printf("Failed to get DB instance: %v", err)
		return
	}
	sqlDB.Close()
}

// TruncateAllTables removes all data from tables, children first.
func TruncateAllTables(conn *gorm.DB) error {
	tables := []string{
		"brand_types",
		"product_brands",
		"socials",
		"products",
		"certificates",
		"brands",
		"categories",
		"storage_cleanups",
		"users",
	}
	for _, table := range tables {
		if err := conn.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
			return err
		}
	}
	return nil
}
