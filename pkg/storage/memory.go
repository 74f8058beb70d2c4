package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStorage keeps objects in memory. It backs tests and local runs
// without S3 credentials.
type MemoryStorage struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]Object
}

type Object struct {
	ContentType string
	Data        []byte
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{baseURL: baseURL, objects: map[string]Object{}}
}

func (m *MemoryStorage) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{ContentType: contentType, Data: buf.Bytes()}
	return m.baseURL + "/" + key, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, objectURL string) error {
	key, err := KeyFromURL(objectURL)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Get returns a stored object.
func (m *MemoryStorage) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	return o, ok
}

// Len returns the number of stored objects.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
