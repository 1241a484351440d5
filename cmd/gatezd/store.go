package main

import (
	"fmt"

	"github.com/codetesla51/gatez/store"
)

// newStore builds the configured state backend.
func newStore(cfg StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		return store.NewRedisStore(cfg.RedisAddr)
	case "postgres":
		return store.NewDatabaseStore(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
}
