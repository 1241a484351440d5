package main

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// GateConfig holds the knobs of one attempt gate
type GateConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Window      time.Duration `mapstructure:"window"`
	Cooldown    time.Duration `mapstructure:"cooldown"`
}

// StoreConfig selects and configures the state backend
type StoreConfig struct {
	Backend         string        `mapstructure:"backend"` // memory | redis | postgres
	RedisAddr       string        `mapstructure:"redis_addr"`
	PostgresDSN     string        `mapstructure:"postgres_dsn"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"` // postgres only
}

// Config holds the overall gatezd configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Gate   GateConfig   `mapstructure:"gate"`
	Guard  GateConfig   `mapstructure:"guard"` // gates the API itself, per client IP
	Store  StoreConfig  `mapstructure:"store"`
}

func LoadConfig(name string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(name) // name of config file (without extension)
	v.AddConfigPath("./config")

	v.SetDefault("server.address", ":8090")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("gate.max_attempts", 5)
	v.SetDefault("gate.window", "1m")
	v.SetDefault("gate.cooldown", "30s")

	v.SetDefault("guard.max_attempts", 100)
	v.SetDefault("guard.window", "1m")
	v.SetDefault("guard.cooldown", "1m")

	v.SetDefault("store.backend", "memory")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.cleanup_interval", "5m")

	if err := v.ReadInConfig(); err != nil {
		// A missing file means defaults; anything else is a real problem
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("unable to parse config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}
