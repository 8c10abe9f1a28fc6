package memory

import (
	"context"
	"sort"
	"sync"

	"policy-reserve-lab/internal/storage"
)

// Artifact is one stored file.
type Artifact struct {
	Data        []byte
	ContentType string
}

// ArtifactStore is an in-memory implementation of storage.ArtifactStore.
type ArtifactStore struct {
	mu    sync.RWMutex
	files map[string]Artifact
}

// NewArtifactStore creates a new in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{files: make(map[string]Artifact)}
}

// Put stores a copy of data. Returns ErrDuplicateKey if name exists.
func (s *ArtifactStore) Put(_ context.Context, name string, data []byte, contentType string) error {
	if name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[name]; exists {
		return storage.ErrDuplicateKey
	}
	s.files[name] = Artifact{
		Data:        append([]byte(nil), data...),
		ContentType: contentType,
	}
	return nil
}

// Get returns a stored file. Returns ErrNotFound if not exists.
func (s *ArtifactStore) Get(name string) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.files[name]
	if !exists {
		return Artifact{}, storage.ErrNotFound
	}
	return Artifact{Data: append([]byte(nil), a.Data...), ContentType: a.ContentType}, nil
}

// Names lists stored file names sorted ascending.
func (s *ArtifactStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.files))
	for n := range s.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var _ storage.ArtifactStore = (*ArtifactStore)(nil)
