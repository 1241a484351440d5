package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no state is stored for a key.
var ErrNotFound = errors.New("key not found")

// State is the persisted record for one key: the attempt timestamps still
// relevant to the sliding window and the cooldown deadline, both in Unix
// nanoseconds. A zero CooldownUntil means no cooldown is set.
type State struct {
	Attempts      []int64 `json:"attempts"`
	CooldownUntil int64   `json:"cooldown_until"`
}

func (s *State) clone() State {
	c := State{CooldownUntil: s.CooldownUntil}
	if len(s.Attempts) > 0 {
		c.Attempts = append([]int64(nil), s.Attempts...)
	}
	return c
}

type Store interface {
	// Get retrieves the state for a key, or ErrNotFound
	Get(ctx context.Context, key string) (*State, error)

	// Set stores state with TTL (auto-expiration)
	Set(ctx context.Context, key string, state *State, ttl time.Duration) error

	// Delete removes a key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists and has not expired
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the store
	Close() error
}

// Ensure interface compliance at compile time.
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*DatabaseStore)(nil)
)
