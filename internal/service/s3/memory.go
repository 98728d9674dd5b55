package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStorage хранит объекты в памяти процесса. Используется для локального
// запуска и тестов.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
}

func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string]memoryObject),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (m *MemoryStorage) PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == "" || body == nil {
		return fmt.Errorf("key and body are required")
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: buf.Bytes(), contentType: contentType}
	return nil
}

func (m *MemoryStorage) GetURL(ctx context.Context, key string) (*string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.objects[key]; !ok {
		return nil, nil
	}
	url := m.baseURL + "/" + key
	return &url, nil
}

func (m *MemoryStorage) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// GetObject возвращает содержимое объекта
func (m *MemoryStorage) GetObject(ctx context.Context, key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return obj.data, obj.contentType, nil
}
