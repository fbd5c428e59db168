package repository

import (
	"context"

	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/fuboru/panel-backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CertificateRepository interface {
	FindAll(ctx context.Context) ([]model.Certificate, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Certificate, error)
	Create(ctx context.Context, certificate *model.Certificate) error
	Update(ctx context.Context, certificate *model.Certificate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type certificateRepository struct {
	db *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) FindAll(ctx context.Context) ([]model.Certificate, error) {
	var certificates []model.Certificate
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&certificates).Error; err != nil {
		logger.Error("Failed to list certificates", err)
		return nil, err
	}
	return certificates, nil
}

func (r *certificateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Certificate, error) {
	var certificate model.Certificate
	if err := r.db.WithContext(ctx).First(&certificate, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &certificate, nil
}

func (r *certificateRepository) Create(ctx context.Context, certificate *model.Certificate) error {
	logger.Debug("Creating certificate in database", map[string]interface{}{
		"name":  certificate.Name,
		"image": certificate.Image,
	})

	if err := r.db.WithContext(ctx).Create(certificate).Error; err != nil {
		logger.Error("Failed to create certificate in database", err, map[string]interface{}{
			"name": certificate.Name,
			"slug": certificate.Slug,
		})
		return err
	}
	return nil
}

func (r *certificateRepository) Update(ctx context.Context, certificate *model.Certificate) error {
	if err := r.db.WithContext(ctx).Save(certificate).Error; err != nil {
		logger.Error("Failed to update certificate in database", err, map[string]interface{}{
			"certificate_id": certificate.ID,
		})
		return err
	}
	return nil
}

func (r *certificateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.Certificate{}, "id = ?", id)
	if result.Error != nil {
		logger.Error("Failed to delete certificate from database", result.Error, map[string]interface{}{
			"certificate_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
