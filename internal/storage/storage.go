package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrObjectNotFound      = errors.New("object not found")
	ErrContentTypeRejected = errors.New("content type is not allowed")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
)

// ImageContentTypes are the content types accepted for catalog images.
var ImageContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
	"image/svg+xml",
}

// ObjectStorage stores binary objects addressed by bucket and path.
type ObjectStorage interface {
	// Upload stores body at path and returns the stored path.
	Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) (string, error)
	// Remove deletes the given paths. Missing objects are not an error.
	Remove(ctx context.Context, bucket string, paths ...string) error
	// URL returns the public URL of an object.
	URL(bucket, path string) string
}

// File is an uploaded image as received from a client.
type File struct {
	Name        string
	Body        io.Reader
	Size        int64
	ContentType string
}

// NewObjectPath returns a fresh object name keeping the extension of filename.
func NewObjectPath(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return uuid.New().String() + ext
}

// ValidateFileSize validates the file size
func ValidateFileSize(size int64, maxSize int64) error {
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, maxSize)
	}
	return nil
}

// ValidateContentType validates the content type
func ValidateContentType(contentType string, allowedTypes []string) error {
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	for _, allowed := range allowedTypes {
		if strings.EqualFold(mediaType, allowed) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrContentTypeRejected, contentType)
}
