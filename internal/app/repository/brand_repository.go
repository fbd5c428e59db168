package repository

import (
	"context"

	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/fuboru/panel-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BrandRepository interface {
	FindAll(ctx context.Context) ([]model.Brand, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Brand, error)
	FindByName(ctx context.Context, name string) (*model.Brand, error)
	Create(ctx context.Context, brand *model.Brand) error
	Update(ctx context.Context, brand *model.Brand) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountProductLinks(ctx context.Context, id uuid.UUID) (int64, error)
}

type brandRepository struct {
	db *gorm.DB
}

func NewBrandRepository(db *gorm.DB) BrandRepository {
	return &brandRepository{db: db}
}

func (r *brandRepository) FindAll(ctx context.Context) ([]model.Brand, error) {
	var brands []model.Brand
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&brands).Error; err != nil {
		logger.Error("Failed to list brands", err)
		return nil, err
	}
	return brands, nil
}

func (r *brandRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Brand, error) {
	var brand model.Brand
	if err := r.db.WithContext(ctx).First(&brand, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *brandRepository) FindByName(ctx context.Context, name string) (*model.Brand, error) {
	var brand model.Brand
	if err := r.db.WithContext(ctx).First(&brand, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *brandRepository) Create(ctx context.Context, brand *model.Brand) error {
	if err := r.db.WithContext(ctx).Create(brand).Error; err != nil {
		logger.Error("Failed to create brand in database", err, map[string]interface{}{
			"name": brand.Name,
		})
		return err
	}

	logger.Debug("Brand created in database", map[string]interface{}{
		"brand_id": brand.ID,
		"name":     brand.Name,
	})
	return nil
}

func (r *brandRepository) Update(ctx context.Context, brand *model.Brand) error {
	if err := r.db.WithContext(ctx).Save(brand).Error; err != nil {
		logger.Error("Failed to update brand in database", err, map[string]interface{}{
			"brand_id": brand.ID,
		})
		return err
	}
	return nil
}

func (r *brandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Brand{}, "id = ?", id)
	if result.Error != nil {
		logger.Error("Failed to delete brand from database", result.Error, map[string]interface{}{
			"brand_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountProductLinks counts product_brands rows pointing at the brand.
func (r *brandRepository) CountProductLinks(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ProductBrand{}).Where("brand_id = ?", id).Count(&count).Error
	return count, err
}
