package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a simple in-memory key-value store with expiration. It
// matches the RedisStore surface so development setups can run without Redis.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
}

type memoryItem struct {
	value      string
	expireTime time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		items: make(map[string]*memoryItem),
	}

	// Start cleanup goroutine to remove expired items
	go store.cleanupExpired()

	return store
}

func (ms *MemoryStore) aliveLocked(item *memoryItem) bool {
	return item != nil && (item.expireTime.IsZero() || time.Now().Before(item.expireTime))
}

// SetNX sets key to value only if it does not exist or has expired
func (ms *MemoryStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.aliveLocked(ms.items[key]) {
		return false, nil
	}
	ms.items[key] = newItem(value, ttl)
	return true, nil
}

// Set stores a key-value pair with expiration
func (ms *MemoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.items[key] = newItem(value, ttl)
	return nil
}

// Get retrieves a value by key, returning "" when absent or expired
func (ms *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item := ms.items[key]
	if !ms.aliveLocked(item) {
		return "", nil
	}
	return item.value, nil
}

// Delete removes a key
func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, key)
	return nil
}

func newItem(value string, ttl time.Duration) *memoryItem {
	item := &memoryItem{value: value}
	if ttl > 0 {
		item.expireTime = time.Now().Add(ttl)
	}
	return item
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ms.mu.Lock()
		now := time.Now()
		for key, item := range ms.items {
			if !item.expireTime.IsZero() && now.After(item.expireTime) {
				delete(ms.items, key)
			}
		}
		ms.mu.Unlock()
	}
}
