package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type entry struct {
	state      State
	expiration time.Time
}

type MemoryStore struct {
	data map[string]*entry
	mu   sync.Mutex
	stop chan struct{}
}

func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		data: make(map[string]*entry),
		stop: make(chan struct{}),
	}

	// Background cleanup of expired entries
	go store.cleanupExpired()

	return store
}

func (ms *MemoryStore) Get(ctx context.Context, key string) (*State, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry, exists := ms.data[key]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	// Check if expired
	if time.Now().After(entry.expiration) {
		delete(ms.data, key)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	// Copy so callers cannot mutate the stored slice
	state := entry.state.clone()
	return &state, nil
}

func (ms *MemoryStore) Set(ctx context.Context, key string, state *State, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.data[key] = &entry{
		state:      state.clone(),
		expiration: time.Now().Add(ttl),
	}

	return nil
}

func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.data, key)
	return nil
}

func (ms *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry, exists := ms.data[key]
	if !exists {
		return false, nil
	}

	// Check if expired
	if time.Now().After(entry.expiration) {
		delete(ms.data, key)
		return false, nil
	}

	return true, nil
}

// Close stops the background cleanup goroutine.
func (ms *MemoryStore) Close() error {
	close(ms.stop)
	return nil
}

// Background cleanup of expired entries (runs every 5 minutes)
func (ms *MemoryStore) cleanupExpired() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.mu.Lock()
			now := time.Now()
			for key, entry := range ms.data {
				if now.After(entry.expiration) {
					delete(ms.data, key)
				}
			}
			ms.mu.Unlock()
		case <-ms.stop:
			return
		}
	}
}
