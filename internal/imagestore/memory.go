package imagestore

import (
	"context"
	"sync"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/google/uuid"
)

// Memory keeps images in process. It backs the memory store driver and tests.
type Memory struct {
	mu      sync.Mutex
	baseURL string
	assets  map[string]asset
	// PutErr, when set, is returned by every Put.
	PutErr error
}

type asset struct {
	data   []byte
	format string
}

func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: baseURL, assets: map[string]asset{}}
}

func (m *Memory) Put(_ context.Context, upload models.NewImageUpload) (*models.Image, error) {
	width, height, format, err := Inspect(upload)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return nil, m.PutErr
	}
	id := uuid.NewString() + "." + format
	m.assets[id] = asset{data: append([]byte(nil), upload.Data...), format: format}
	return &models.Image{
		URL:     m.baseURL + "/" + id,
		AssetID: id,
		Width:   width,
		Height:  height,
		Format:  format,
	}, nil
}

func (m *Memory) Release(_ context.Context, assetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assets, assetID)
	return nil
}

// Get returns a copy of the stored bytes and their content type.
func (m *Memory) Get(assetID string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[assetID]
	if !ok {
		return nil, "", false
	}
	return append([]byte(nil), a.data...), contentType(a.format), true
}

// Has reports whether assetID is currently stored.
func (m *Memory) Has(assetID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.assets[assetID]
	return ok
}

// Len returns the number of stored assets.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.assets)
}
