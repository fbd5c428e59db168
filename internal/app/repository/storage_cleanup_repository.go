package repository

import (
	"context"

	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StorageCleanupRepository interface {
	Create(ctx context.Context, cleanup *model.StorageCleanup) error
	FindPending(ctx context.Context, limit int) ([]model.StorageCleanup, error)
	MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type storageCleanupRepository struct {
	db *gorm.DB
}

func NewStorageCleanupRepository(db *gorm.DB) StorageCleanupRepository {
	return &storageCleanupRepository{db: db}
}

func (r *storageCleanupRepository) Create(ctx context.Context, cleanup *model.StorageCleanup) error {
	return r.db.WithContext(ctx).Create(cleanup).Error
}

// FindPending returns pending removals, least attempted first, so entries
// that keep failing do not starve newer ones.
func (r *storageCleanupRepository) FindPending(ctx context.Context, limit int) ([]model.StorageCleanup, error) {
	var cleanups []model.StorageCleanup
	query := r.db.WithContext(ctx).Order("attempts ASC").Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&cleanups).Error; err != nil {
		return nil, err
	}
	return cleanups, nil
}

func (r *storageCleanupRepository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.db.WithContext(ctx).Model(&model.StorageCleanup{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": lastError,
		}).Error
}

func (r *storageCleanupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.StorageCleanup{}, "id = ?", id).Error
}
