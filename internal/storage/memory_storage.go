package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

var ErrInjected = errors.New("injected storage failure")

// MemoryStorage keeps objects in process memory. It backs the "memory"
// storage driver and tests.
type MemoryStorage struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failUpload bool
	failRemove bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func objectKey(bucket, path string) string {
	return bucket + "/" + path
}

func (m *MemoryStorage) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	fail := m.failUpload
	m.mu.Unlock()
	if fail {
		return "", fmt.Errorf("failed to upload %s/%s: %w", bucket, path, ErrInjected)
	}

	var buf bytes.Buffer
	if body != nil {
		if _, err := io.Copy(&buf, body); err != nil {
			return "", err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectKey(bucket, path)] = buf.Bytes()
	return path, nil
}

func (m *MemoryStorage) Remove(ctx context.Context, bucket string, paths ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRemove {
		return fmt.Errorf("failed to remove objects from %s: %w", bucket, ErrInjected)
	}
	for _, p := range paths {
		delete(m.objects, objectKey(bucket, p))
	}
	return nil
}

func (m *MemoryStorage) URL(bucket, path string) string {
	if path == "" {
		return ""
	}
	return "memory://" + objectKey(bucket, path)
}

// Exists reports whether an object is stored.
func (m *MemoryStorage) Exists(bucket, path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[objectKey(bucket, path)]
	return ok
}

// Get returns the stored bytes of an object.
func (m *MemoryStorage) Get(bucket, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[objectKey(bucket, path)]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return data, nil
}

// Count returns the number of objects in bucket.
func (m *MemoryStorage) Count(bucket string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := bucket + "/"
	n := 0
	for k := range m.objects {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// FailUploads makes subsequent uploads fail while on is true.
func (m *MemoryStorage) FailUploads(on bool) {
	m.mu.Lock()
	m.failUpload = on
	m.mu.Unlock()
}

// FailRemovals makes subsequent removals fail while on is true.
func (m *MemoryStorage) FailRemovals(on bool) {
	m.mu.Lock()
	m.failRemove = on
	m.mu.Unlock()
}
