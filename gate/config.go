package gate

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Validate and the constructors when a
// configuration value is zero or negative.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the three knobs of an attempt gate.
type Config struct {
	MaxAttempts int           // Max attempts allowed inside the window
	Window      time.Duration // How far back attempts count
	Cooldown    time.Duration // Lockout applied once the cap is hit
}

// DefaultConfig returns the stock gate: 5 attempts per minute with a
// 30 second cooldown.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		Window:      time.Minute,
		Cooldown:    30 * time.Second,
	}
}

// Validate rejects zero and negative values. Defaults are never substituted
// silently; use DefaultConfig for the stock values.
func (c Config) Validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: MaxAttempts must be greater than 0, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: Window must be greater than 0, got %v", ErrInvalidConfig, c.Window)
	}
	if c.Cooldown <= 0 {
		return fmt.Errorf("%w: Cooldown must be greater than 0, got %v", ErrInvalidConfig, c.Cooldown)
	}
	return nil
}
