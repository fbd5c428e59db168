package service

import (
	"context"

	"github.com/fuboru/panel-backend/internal/storage"
	"github.com/fuboru/panel-backend/pkg/logger"
)

// uploadImage stores file under a fresh object path and returns the path.
// A nil file uploads nothing and returns "".
func uploadImage(ctx context.Context, store storage.ObjectStorage, bucket string, file *storage.File) (string, error) {
	if file == nil {
		return "", nil
	}

	path := storage.NewObjectPath(file.Name)
	stored, err := store.Upload(ctx, bucket, path, file.Body, file.ContentType)
	if err != nil {
		return "", err
	}

	logger.Debug("Image uploaded", map[string]interface{}{
		"bucket": bucket,
		"path":   stored,
		"size":   file.Size,
	})
	return stored, nil
}

// discardQuietly removes an object that is no longer referenced. Failures
// are already queued for retry by the cleanup service.
func discardQuietly(ctx context.Context, cleanup CleanupService, bucket, path string) {
	if err := cleanup.Discard(ctx, bucket, path); err != nil {
		logger.Warn("Image discard deferred", map[string]interface{}{
			"bucket": bucket,
			"path":   path,
		})
	}
}
