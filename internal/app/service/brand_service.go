package service

import (
	"context"
	"errors"

	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/fuboru/panel-backend/internal/app/repository"
	"github.com/fuboru/panel-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrBrandNotFound = errors.New("brand not found")
	ErrBrandInUse    = errors.New("brand is referenced by products")
)

type BrandInput struct {
	Name string
}

type BrandService interface {
	List(ctx context.Context) ([]model.Brand, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Brand, error)
	Create(ctx context.Context, input BrandInput) (*model.Brand, error)
	Update(ctx context.Context, id uuid.UUID, input BrandInput) (*model.Brand, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type brandService struct {
	brandRepo repository.BrandRepository
}

func NewBrandService(brandRepo repository.BrandRepository) BrandService {
	return &brandService{brandRepo: brandRepo}
}

func (s *brandService) List(ctx context.Context) ([]model.Brand, error) {
	return s.brandRepo.FindAll(ctx)
}

func (s *brandService) Get(ctx context.Context, id uuid.UUID) (*model.Brand, error) {
	brand, err := s.brandRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBrandNotFound
		}
		return nil, err
	}
	return brand, nil
}

func (s *brandService) Create(ctx context.Context, input BrandInput) (*model.Brand, error) {
	brand := &model.Brand{Name: input.Name}
	if err := s.brandRepo.Create(ctx, brand); err != nil {
		return nil, err
	}
	return brand, nil
}

func (s *brandService) Update(ctx context.Context, id uuid.UUID, input BrandInput) (*model.Brand, error) {
	brand, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	brand.Name = input.Name
	if err := s.brandRepo.Update(ctx, brand); err != nil {
		return nil, err
	}
	return brand, nil
}

func (s *brandService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.brandRepo.CountProductLinks(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrBrandInUse
	}

	if err := s.brandRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBrandNotFound
		}
		return err
	}

	logger.Info("Brand deleted", map[string]interface{}{
		"brand_id": id,
	})
	return nil
}
