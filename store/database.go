package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// GateEntry represents a row in the database
type GateEntry struct {
	Key       string `gorm:"primaryKey"`
	State     string
	ExpiresAt time.Time
}

type DatabaseStore struct {
	db *gorm.DB
}

func NewDatabaseStore(dsn string) (*DatabaseStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-create table if needed
	if err := db.AutoMigrate(&GateEntry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Create index on ExpiresAt for cleanup queries
	if !db.Migrator().HasIndex(&GateEntry{}, "expires_at") {
		db.Migrator().CreateIndex(&GateEntry{}, "expires_at")
	}

	return &DatabaseStore{db: db}, nil
}

// Get retrieves state from the database
func (ds *DatabaseStore) Get(ctx context.Context, key string) (*State, error) {
	var entry GateEntry

	// Query and check if expired
	result := ds.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, time.Now()).
		First(&entry)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if result.Error != nil {
		return nil, result.Error
	}

	var state State
	if err := json.Unmarshal([]byte(entry.State), &state); err != nil {
		return nil, fmt.Errorf("decode state for %s: %w", key, err)
	}

	return &state, nil
}

// Set stores state in the database with TTL
func (ds *DatabaseStore) Set(ctx context.Context, key string, state *State, ttl time.Duration) error {
	// Convert state to JSON string
	jsonData, err := json.Marshal(state)
	if err != nil {
		return err
	}

	entry := GateEntry{
		Key:       key,
		State:     string(jsonData),
		ExpiresAt: time.Now().Add(ttl),
	}

	// Upsert (insert or update)
	return ds.db.WithContext(ctx).Save(&entry).Error
}

// Delete removes a key from the database
func (ds *DatabaseStore) Delete(ctx context.Context, key string) error {
	return ds.db.WithContext(ctx).Delete(&GateEntry{}, "key = ?", key).Error
}

// Exists checks if a key exists in the database and hasn't expired
func (ds *DatabaseStore) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	result := ds.db.WithContext(ctx).Model(&GateEntry{}).
		Where("key = ? AND expires_at > ?", key, time.Now()).
		Count(&count)

	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// CleanupExpired removes rows whose expiry has passed. Intended to be run
// periodically by the embedding service.
func (ds *DatabaseStore) CleanupExpired(ctx context.Context) error {
	return ds.db.WithContext(ctx).Delete(&GateEntry{}, "expires_at <= ?", time.Now()).Error
}

// Close closes the database connection
func (ds *DatabaseStore) Close() error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
