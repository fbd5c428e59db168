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
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInUse    = errors.New("category is referenced by products")
)

type CategoryInput struct {
	Name string
	Slug string
}

type CategoryService interface {
	List(ctx context.Context) ([]model.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Category, error)
	Create(ctx context.Context, input CategoryInput) (*model.Category, error)
	Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*model.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.FindAll(ctx)
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Create(ctx context.Context, input CategoryInput) (*model.Category, error) {
	category := &model.Category{Name: input.Name, Slug: input.Slug}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	logger.Info("Category created", map[string]interface{}{
		"category_id": category.ID,
		"slug":        category.Slug,
	})
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, input CategoryInput) (*model.Category, error) {
	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = input.Name
	category.Slug = input.Slug
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	count, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		logger.Warn("Refusing to delete category in use", map[string]interface{}{
			"category_id": id,
			"products":    count,
		})
		return ErrCategoryInUse
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	logger.Info("Category deleted", map[string]interface{}{
		"category_id": id,
	})
	return nil
}
