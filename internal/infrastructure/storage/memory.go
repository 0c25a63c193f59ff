package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	byomapp "github.com/merch/byom/internal/application/byom"
)

// Object is one stored payload
type Object struct {
	Data        []byte
	ContentType string
}

// MemoryObjectStorage keeps graphics in process memory. It backs the "stub"
// storage driver for development and tests.
type MemoryObjectStorage struct {
	// BaseURL prefixes public and download URLs
	BaseURL string

	mu      sync.RWMutex
	objects map[string]Object
}

var _ byomapp.ObjectStorage = (*MemoryObjectStorage)(nil)

// NewMemoryObjectStorage creates an empty store. An empty baseURL defaults to
// https://storage.example.com
func NewMemoryObjectStorage(baseURL string) *MemoryObjectStorage {
	if baseURL == "" {
		baseURL = "https://storage.example.com"
	}
	return &MemoryObjectStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]Object),
	}
}

// Upload stores a copy of data under storageKey
func (s *MemoryObjectStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = Object{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

// PublicURL returns BaseURL/storageKey
func (s *MemoryObjectStorage) PublicURL(storageKey string) string {
	return s.BaseURL + "/" + storageKey
}

// GenerateDownloadURL returns a fake signed URL carrying the expiry
func (s *MemoryObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(expiresIn)
	u := s.BaseURL + "/download/" + storageKey + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return u, expiresAt, nil
}

// DeleteObject forgets storageKey
func (s *MemoryObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// ObjectExists reports whether storageKey is stored
func (s *MemoryObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// Get returns the object stored under storageKey
func (s *MemoryObjectStorage) Get(storageKey string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[storageKey]
	return o, ok
}

// Len returns the number of stored objects
func (s *MemoryObjectStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
