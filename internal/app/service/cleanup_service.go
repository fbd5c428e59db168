package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fuboru/panel-backend/internal/app/model"
	"github.com/fuboru/panel-backend/internal/app/repository"
	"github.com/fuboru/panel-backend/internal/storage"
	"github.com/fuboru/panel-backend/pkg/logger"
)

const cleanupBatchSize = 100

// ErrCleanupDeferred marks a removal that failed and was queued for retry.
var ErrCleanupDeferred = errors.New("object removal deferred")

type CleanupReport struct {
	Processed int `json:"processed"`
	Removed   int `json:"removed"`
	Failed    int `json:"failed"`
}

// CleanupService removes objects that are no longer referenced. Removals
// that fail are queued and retried by ProcessPending.
type CleanupService interface {
	Discard(ctx context.Context, bucket, path string) error
	ProcessPending(ctx context.Context) (CleanupReport, error)
}

type cleanupService struct {
	store       storage.ObjectStorage
	cleanupRepo repository.StorageCleanupRepository
}

func NewCleanupService(store storage.ObjectStorage, cleanupRepo repository.StorageCleanupRepository) CleanupService {
	return &cleanupService{store: store, cleanupRepo: cleanupRepo}
}

// Discard removes one object. On failure the object is queued for retry
// and the removal error is returned.
func (s *cleanupService) Discard(ctx context.Context, bucket, path string) error {
	if path == "" {
		return nil
	}

	err := s.store.Remove(ctx, bucket, path)
	if err == nil {
		return nil
	}

	logger.Warn("Object removal failed, queueing for retry", map[string]interface{}{
		"bucket": bucket,
		"path":   path,
		"error":  err.Error(),
	})

	entry := &model.StorageCleanup{Bucket: bucket, Path: path, LastError: err.Error()}
	if qerr := s.cleanupRepo.Create(context.WithoutCancel(ctx), entry); qerr != nil {
		logger.Error("Failed to queue object removal", qerr, map[string]interface{}{
			"bucket": bucket,
			"path":   path,
		})
	}
	return fmt.Errorf("%w: %w", ErrCleanupDeferred, err)
}

func (s *cleanupService) ProcessPending(ctx context.Context) (CleanupReport, error) {
	var report CleanupReport

	pending, err := s.cleanupRepo.FindPending(ctx, cleanupBatchSize)
	if err != nil {
		return report, err
	}

	for _, entry := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Processed++

		if err := s.store.Remove(ctx, entry.Bucket, entry.Path); err != nil {
			report.Failed++
			if merr := s.cleanupRepo.MarkFailed(ctx, entry.ID, err.Error()); merr != nil {
				return report, merr
			}
			continue
		}

		if err := s.cleanupRepo.Delete(ctx, entry.ID); err != nil {
			return report, err
		}
		report.Removed++
	}

	if report.Processed > 0 {
		logger.Info("Storage cleanup pass finished", map[string]interface{}{
			"processed": report.Processed,
			"removed":   report.Removed,
			"failed":    report.Failed,
		})
	}
	return report, nil
}
