package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StorageCleanup is an object whose removal failed and must be retried.
type StorageCleanup struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Bucket    string    `gorm:"not null;index:idx_storage_cleanups_object" json:"bucket"`
	Path      string    `gorm:"not null;index:idx_storage_cleanups_object" json:"path"`
	Attempts  int       `gorm:"default:0" json:"attempts"`
	LastError string    `gorm:"type:text" json:"last_error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (StorageCleanup) TableName() string {
	return "storage_cleanups"
}

func (s *StorageCleanup) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
