package repository

import (
	"context"

	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/fuboru/panel-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository covers products and the rows they own: socials,
// product_brands and brand_types.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	CreateSocials(ctx context.Context, socials []model.Social) error
	DeleteSocialsByProductID(ctx context.Context, productID uuid.UUID) error
	CreateProductBrands(ctx context.Context, productBrands []model.ProductBrand) error
	FindProductBrandIDs(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error)
	DeleteProductBrandsByProductID(ctx context.Context, productID uuid.UUID) error
	CreateBrandTypes(ctx context.Context, brandTypes []model.BrandType) error
	DeleteBrandTypesByProductBrandIDs(ctx context.Context, productBrandIDs []uuid.UUID) error

	// Transaction runs fn against a repository bound to one database
	// transaction. fn returning an error rolls everything back.
	Transaction(ctx context.Context, fn func(tx ProductRepository) error) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Transaction(ctx context.Context, fn func(tx ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&productRepository{db: tx})
	})
}

func (r *productRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, err
	}

	logger.Debug("Products listed", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID loads a product with its category, socials and brand
// compatibility rows, children in write order.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Socials", byPosition).
		Preload("ProductBrands", byPosition).
		Preload("ProductBrands.Brand").
		Preload("ProductBrands.BrandTypes", byPosition).
		First(&product, "id = ?", id).Error
	if err != nil {
		logger.Debug("Product lookup failed", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate loads the bare product row, locking it where the
// dialect supports row locks.
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":        product.Name,
		"slug":        product.Slug,
		"category_id": product.CategoryID,
	})

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
			"slug": product.Slug,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	err := r.db.WithContext(ctx).
		Model(product).
		Select("name", "slug", "image", "category_id", "description", "advantage", "updated_at").
		Omit(clause.Associations).
		Updates(product).Error
	if err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id)
	if result.Error != nil {
		logger.Error("Failed to delete product from database", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepository) CreateSocials(ctx context.Context, socials []model.Social) error {
	if len(socials) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&socials).Error; err != nil {
		logger.Error("Failed to create socials", err, map[string]interface{}{
			"product_id": socials[0].ProductID,
			"count":      len(socials),
		})
		return err
	}
	return nil
}

func (r *productRepository) DeleteSocialsByProductID(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.Social{}).Error
}

// CreateProductBrands inserts the rows and fills in their generated ids.
func (r *productRepository) CreateProductBrands(ctx context.Context, productBrands []model.ProductBrand) error {
	if len(productBrands) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&productBrands).Error; err != nil {
		logger.Error("Failed to create product brands", err, map[string]interface{}{
			"product_id": productBrands[0].ProductID,
			"count":      len(productBrands),
		})
		return err
	}
	return nil
}

func (r *productRepository) FindProductBrandIDs(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.ProductBrand{}).
		Where("product_id = ?", productID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *productRepository) DeleteProductBrandsByProductID(ctx context.Context, productID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("product_id = ?", productID).Delete(&model.ProductBrand{}).Error
}

func (r *productRepository) CreateBrandTypes(ctx context.Context, brandTypes []model.BrandType) error {
	if len(brandTypes) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&brandTypes).Error; err != nil {
		logger.Error("Failed to create brand types", err, map[string]interface{}{
			"count": len(brandTypes),
		})
		return err
	}
	return nil
}

func (r *productRepository) DeleteBrandTypesByProductBrandIDs(ctx context.Context, productBrandIDs []uuid.UUID) error {
	if len(productBrandIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("product_brand_id IN ?", productBrandIDs).Delete(&model.BrandType{}).Error
}
