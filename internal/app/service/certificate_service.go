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

var ErrCertificateNotFound = errors.New("certificate not found")

type CertificateInput struct {
	Name          string
	Slug          string
	DescriptionID string
	DescriptionEN string
}

type CertificateService interface {
	List(ctx context.Context) ([]model.Certificate, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Certificate, error)
	Create(ctx context.Context, input CertificateInput, file *storage.File) (*model.Certificate, error)
	Update(ctx context.Context, id uuid.UUID, input CertificateInput, file *storage.File) (*model.Certificate, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type certificateService struct {
	certificateRepo repository.CertificateRepository
	store           storage.ObjectStorage
	cleanup         CleanupService
	bucket          string
}

func NewCertificateService(
	certificateRepo repository.CertificateRepository,
	store storage.ObjectStorage,
	cleanup CleanupService,
	bucket string,
) CertificateService {
	return &certificateService{
		certificateRepo: certificateRepo,
		store:           store,
		cleanup:         cleanup,
		bucket:          bucket,
	}
}

func (s *certificateService) withURL(certificate *model.Certificate) {
	certificate.ImageURL = s.store.URL(s.bucket, certificate.Image)
}

func (s *certificateService) List(ctx context.Context) ([]model.Certificate, error) {
	certificates, err := s.certificateRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range certificates {
		s.withURL(&certificates[i])
	}
	return certificates, nil
}

func (s *certificateService) Get(ctx context.Context, id uuid.UUID) (*model.Certificate, error) {
	certificate, err := s.certificateRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}
	s.withURL(certificate)
	return certificate, nil
}

func (s *certificateService) Create(ctx context.Context, input CertificateInput, file *storage.File) (*model.Certificate, error) {
	image, err := uploadImage(ctx, s.store, s.bucket, file)
	if err != nil {
		return nil, err
	}

	certificate := &model.Certificate{
		Name:          input.Name,
		Slug:          input.Slug,
		Image:         image,
		DescriptionID: input.DescriptionID,
		DescriptionEN: input.DescriptionEN,
	}
	if err := s.certificateRepo.Create(ctx, certificate); err != nil {
		discardQuietly(ctx, s.cleanup, s.bucket, image)
		return nil, err
	}

	logger.Info("Certificate created", map[string]interface{}{
		"certificate_id": certificate.ID,
		"has_image":      image != "",
	})
	s.withURL(certificate)
	return certificate, nil
}

// Update replaces the image only when a file is supplied. The previous
// object is discarded after the row points at the new one.
func (s *certificateService) Update(ctx context.Context, id uuid.UUID, input CertificateInput, file *storage.File) (*model.Certificate, error) {
	certificate, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := certificate.Image
	image, err := uploadImage(ctx, s.store, s.bucket, file)
	if err != nil {
		return nil, err
	}

	certificate.Name = input.Name
	certificate.Slug = input.Slug
	certificate.DescriptionID = input.DescriptionID
	certificate.DescriptionEN = input.DescriptionEN
	if image != "" {
		certificate.Image = image
	}

	if err := s.certificateRepo.Update(ctx, certificate); err != nil {
		discardQuietly(ctx, s.cleanup, s.bucket, image)
		return nil, err
	}

	if image != "" && previous != "" && previous != image {
		discardQuietly(ctx, s.cleanup, s.bucket, previous)
	}

	s.withURL(certificate)
	return certificate, nil
}

func (s *certificateService) Delete(ctx context.Context, id uuid.UUID) error {
	certificate, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.certificateRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCertificateNotFound
		}
		return err
	}

	logger.Info("Certificate deleted", map[string]interface{}{
		"certificate_id": id,
	})
	return s.cleanup.Discard(ctx, s.bucket, certificate.Image)
}
