package service

import (
	"context"
	"errors"

	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/fuboru/panel-backend/internal/app/repository"
	"github.com/fuboru/panel-backend/internal/storage"
	"github.com/fuboru/panel-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found")

type SocialInput struct {
	Name        string
	Link        string
	EmbededCode string
}

// CompatibleInput is one brand compatibility entry. Types is a
// comma-joined list such as "Avanza, Xenia".
type CompatibleInput struct {
	BrandID uuid.UUID
	Types   string
}

type ProductInput struct {
	Name        string
	Slug        string
	CategoryID  uuid.UUID
	Description string
	Advantage   string
	Socials     []SocialInput
	Compatibles []CompatibleInput
}

// ProductService writes a product together with its socials, product
// brands and brand types. Every write is one database transaction; the
// product image is uploaded before it and discarded if it fails.
type ProductService interface {
	List(ctx context.Context) ([]model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, input ProductInput, file *storage.File) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput, file *storage.File) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	productRepo repository.ProductRepository
	store       storage.ObjectStorage
	cleanup     CleanupService
	bucket      string
}

func NewProductService(
	productRepo repository.ProductRepository,
	store storage.ObjectStorage,
	cleanup CleanupService,
	bucket string,
) ProductService {
	return &productService{
		productRepo: productRepo,
		store:       store,
		cleanup:     cleanup,
		bucket:      bucket,
	}
}

func (s *productService) List(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].ImageURL = s.store.URL(s.bucket, products[i].Image)
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	product.Compatible = model.BuildCompatibles(product.ProductBrands)
	product.ImageURL = s.store.URL(s.bucket, product.Image)
	return product, nil
}

func (s *productService) Create(ctx context.Context, input ProductInput, file *storage.File) (*model.Product, error) {
	logger.Info("Creating product", map[string]interface{}{
		"slug":        input.Slug,
		"socials":     len(input.Socials),
		"compatibles": len(input.Compatibles),
		"has_image":   file != nil,
	})

	image, err := uploadImage(ctx, s.store, s.bucket, file)
	if err != nil {
		logger.Error("Product image upload failed, nothing created", err, map[string]interface{}{
			"slug": input.Slug,
		})
		return nil, err
	}

	product := &model.Product{Image: image}
	applyProductInput(product, input)

	err = s.productRepo.Transaction(ctx, func(tx repository.ProductRepository) error {
		if err := tx.Create(ctx, product); err != nil {
			return err
		}
		return writeChildren(ctx, tx, product.ID, input)
	})
	if err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"slug": input.Slug,
		})
		discardQuietly(ctx, s.cleanup, s.bucket, image)
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
	})
	return s.Get(ctx, product.ID)
}

// Update replaces the base row and every child row. Child ids always
// change. A supplied file replaces the image; the previous object is
// discarded only after the transaction commits.
func (s *productService) Update(ctx context.Context, id uuid.UUID, input ProductInput, file *storage.File) (*model.Product, error) {
	if _, err := s.findForWrite(ctx, s.productRepo, id); err != nil {
		return nil, err
	}

	image, err := uploadImage(ctx, s.store, s.bucket, file)
	if err != nil {
		return nil, err
	}

	var previous string
	err = s.productRepo.Transaction(ctx, func(tx repository.ProductRepository) error {
		product, err := s.findForWrite(ctx, tx, id)
		if err != nil {
			return err
		}
		previous = product.Image

		applyProductInput(product, input)
		if image != "" {
			product.Image = image
		}
		if err := tx.Update(ctx, product); err != nil {
			return err
		}

		if err := clearChildren(ctx, tx, id); err != nil {
			return err
		}
		return writeChildren(ctx, tx, id, input)
	})
	if err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		discardQuietly(ctx, s.cleanup, s.bucket, image)
		return nil, err
	}

	if image != "" && previous != "" && previous != image {
		discardQuietly(ctx, s.cleanup, s.bucket, previous)
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id":    id,
		"image_changed": image != "",
	})
	return s.Get(ctx, id)
}

// Delete removes the product and its child rows in one transaction, then
// the stored image. A failed image removal is returned and queued for retry.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	var image string
	err := s.productRepo.Transaction(ctx, func(tx repository.ProductRepository) error {
		product, err := s.findForWrite(ctx, tx, id)
		if err != nil {
			return err
		}
		image = product.Image

		if err := clearChildren(ctx, tx, id); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return s.cleanup.Discard(ctx, s.bucket, image)
}

func (s *productService) findForWrite(ctx context.Context, repo repository.ProductRepository, id uuid.UUID) (*model.Product, error) {
	product, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func applyProductInput(product *model.Product, input ProductInput) {
	product.Name = input.Name
	product.Slug = input.Slug
	product.CategoryID = input.CategoryID
	product.Description = input.Description
	product.Advantage = input.Advantage
}

// writeChildren inserts socials, one product brand per compatible entry
// and one brand type per non-empty type of that entry.
func writeChildren(ctx context.Context, tx repository.ProductRepository, productID uuid.UUID, input ProductInput) error {
	socials := make([]model.Social, 0, len(input.Socials))
	for i, social := range input.Socials {
		socials = append(socials, model.Social{
			ProductID:   productID,
			Name:        social.Name,
			Link:        social.Link,
			EmbededCode: social.EmbededCode,
			Position:    i,
		})
	}
	if err := tx.CreateSocials(ctx, socials); err != nil {
		return err
	}

	productBrands := make([]model.ProductBrand, 0, len(input.Compatibles))
	for i, compatible := range input.Compatibles {
		productBrands = append(productBrands, model.ProductBrand{
			ProductID: productID,
			BrandID:   compatible.BrandID,
			Position:  i,
		})
	}
	if err := tx.CreateProductBrands(ctx, productBrands); err != nil {
		return err
	}

	// Pair rows with entries by position so repeated brand ids keep their
	// own type lists.
	var brandTypes []model.BrandType
	for i, productBrand := range productBrands {
		for j, t := range model.SplitTypes(input.Compatibles[i].Types) {
			brandTypes = append(brandTypes, model.BrandType{
				ProductBrandID: productBrand.ID,
				Type:           t,
				Position:       j,
			})
		}
	}
	return tx.CreateBrandTypes(ctx, brandTypes)
}

func clearChildren(ctx context.Context, tx repository.ProductRepository, productID uuid.UUID) error {
	productBrandIDs, err := tx.FindProductBrandIDs(ctx, productID)
	if err != nil {
		return err
	}
	if err := tx.DeleteBrandTypesByProductBrandIDs(ctx, productBrandIDs); err != nil {
		return err
	}
	if err := tx.DeleteProductBrandsByProductID(ctx, productID); err != nil {
		return err
	}
	return tx.DeleteSocialsByProductID(ctx, productID)
}
