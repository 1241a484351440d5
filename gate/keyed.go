package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/codetesla51/gatez/store"
)

// KeyedLimiter applies one gate configuration to many keys, persisting
// per-key state in a store so limits survive restarts and can be shared
// between processes.
type KeyedLimiter struct {
	cfg   Config
	store store.Store
	now   func() time.Time
	mu    sync.Mutex
}

// NewKeyed returns a KeyedLimiter over s, or ErrInvalidConfig.
func NewKeyed(cfg Config, s store.Store) (*KeyedLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &KeyedLimiter{
		cfg:   cfg,
		store: s,
		now:   time.Now,
	}, nil
}

// Allow records one attempt for key if permitted and reports the verdict.
// Store failures surface as errors; whether to fail open on them is the
// caller's decision.
func (kl *KeyedLimiter) Allow(ctx context.Context, key string) (Result, error) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	st, err := kl.load(ctx, key)
	if err != nil {
		return Result{}, err
	}

	res, changed := advance(st, kl.cfg, kl.now())
	if changed {
		if err := kl.store.Set(ctx, key, st, kl.ttl()); err != nil {
			return Result{}, fmt.Errorf("failed to save gate state: %w", err)
		}
	}
	return res, nil
}

// Status reports the verdict key would get right now without recording
// anything.
func (kl *KeyedLimiter) Status(ctx context.Context, key string) (Result, error) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	st, err := kl.load(ctx, key)
	if err != nil {
		return Result{}, err
	}
	return peek(st, kl.cfg, kl.now()), nil
}

// CooldownSeconds reports key's remaining cooldown in whole seconds,
// rounded up. 0 when no cooldown is active.
func (kl *KeyedLimiter) CooldownSeconds(ctx context.Context, key string) (int, error) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	st, err := kl.load(ctx, key)
	if err != nil {
		return 0, err
	}
	return cooldownSeconds(st, kl.now()), nil
}

// Reset clears all attempts and any cooldown for key.
func (kl *KeyedLimiter) Reset(ctx context.Context, key string) error {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	return kl.store.Delete(ctx, key)
}

func (kl *KeyedLimiter) load(ctx context.Context, key string) (*store.State, error) {
	st, err := kl.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return &store.State{}, nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// ttl keeps state long enough to matter: beyond Window+Cooldown a record
// cannot influence any future check.
func (kl *KeyedLimiter) ttl() time.Duration {
	return kl.cfg.Window + kl.cfg.Cooldown
}
