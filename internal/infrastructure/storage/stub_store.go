package storage

import (
	"context"
	"slices"
	"strings"
	"sync"

	appinv "github.com/invoicer/backend/internal/application/invoicing"
)

const memoryScheme = "memory://"

var (
	_ appinv.ArtifactStore  = (*StubArtifactStore)(nil)
	_ appinv.ArtifactReader = (*StubArtifactStore)(nil)
)

// StubArtifactStore keeps artifacts in memory. Use it in development and tests.
type StubArtifactStore struct {
	mu      sync.RWMutex
	objects map[string]storedObject
}

type storedObject struct {
	data        []byte
	contentType string
}

// NewStubArtifactStore creates an empty StubArtifactStore
func NewStubArtifactStore() *StubArtifactStore {
	return &StubArtifactStore{objects: make(map[string]storedObject)}
}

// Put stores a copy of data and returns a memory:// path
func (s *StubArtifactStore) Put(_ context.Context, key string, data []byte, contentType string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = storedObject{data: slices.Clone(data), contentType: contentType}
	return memoryScheme + key, nil
}

// Get returns a copy of a stored object
func (s *StubArtifactStore) Get(_ context.Context, path string) ([]byte, error) {
	key, err := cleanKey(trimScheme(path))
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	return slices.Clone(obj.data), nil
}

// ContentType returns the content type an object was stored with
func (s *StubArtifactStore) ContentType(path string) (string, bool) {
	key, err := cleanKey(trimScheme(path))
	if err != nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj.contentType, ok
}

// Len returns the number of stored objects
func (s *StubArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func trimScheme(path string) string {
	return strings.TrimPrefix(path, memoryScheme)
}
