package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"invoicedesk/internal/caching"
)

// MemIdempotencyStore is an in-memory caching.IdempotencyStore. TTLs are
// ignored.
type MemIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]caching.StoredResponse
	PingErr error
}

func NewMemIdempotencyStore() *MemIdempotencyStore {
	return &MemIdempotencyStore{entries: make(map[string]caching.StoredResponse)}
}

func (m *MemIdempotencyStore) Get(ctx context.Context, actorID, key string) (*caching.StoredResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resp, ok := m.entries[actorID+"|"+key]
	if !ok {
		return nil, nil
	}
	return &resp, nil
}

func (m *MemIdempotencyStore) Set(ctx context.Context, actorID, key string, resp *caching.StoredResponse, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[actorID+"|"+key]; !exists {
		m.entries[actorID+"|"+key] = *resp
	}
	return nil
}

func (m *MemIdempotencyStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// Len returns the number of remembered responses
func (m *MemIdempotencyStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// MemDocumentStorage keeps stored documents in memory and hands out fake
// download URLs
type MemDocumentStorage struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
}

func NewMemDocumentStorage(bucket string) *MemDocumentStorage {
	return &MemDocumentStorage{
		bucket:  bucket,
		objects: make(map[string][]byte),
	}
}

func (m *MemDocumentStorage) Bucket() string {
	return m.bucket
}

func (m *MemDocumentStorage) Store(ctx context.Context, objectName, contentType string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = append([]byte(nil), body...)
	return nil
}

func (m *MemDocumentStorage) DownloadURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[objectName]; !ok {
		return "", fmt.Errorf("object %s does not exist", objectName)
	}
	return fmt.Sprintf("http://storage.test/%s/%s?expires=%d", m.bucket, objectName, int(expiry.Seconds())), nil
}

// Object returns a stored document's bytes
func (m *MemDocumentStorage) Object(objectName string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[objectName]
	return data, ok
}
