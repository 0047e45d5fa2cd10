package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-editor/internal/models"
)

var ErrPreviewNotFound = errors.New("preview not found")

// PreviewRegistry hands out display handles for artifacts. Every handle must
// be released once the artifact it shows is superseded.
type PreviewRegistry struct {
	mu    sync.RWMutex
	items map[string]*models.ImageArtifact
}

func NewPreviewRegistry() *PreviewRegistry {
	return &PreviewRegistry{items: make(map[string]*models.ImageArtifact)}
}

func (r *PreviewRegistry) Create(artifact *models.ImageArtifact) string {
	handle := uuid.New().String()
	r.mu.Lock()
	r.items[handle] = artifact
	r.mu.Unlock()
	return handle
}

func (r *PreviewRegistry) Resolve(handle string) (*models.ImageArtifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	artifact, ok := r.items[handle]
	if !ok {
		return nil, ErrPreviewNotFound
	}
	return artifact, nil
}

// Release is a no-op for unknown or empty handles.
func (r *PreviewRegistry) Release(handle string) {
	if handle == "" {
		return
	}
	r.mu.Lock()
	delete(r.items, handle)
	r.mu.Unlock()
}

// Len reports the number of live handles.
func (r *PreviewRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
