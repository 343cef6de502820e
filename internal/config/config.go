package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Auth     AuthConfig     `json:"auth"`
	Throttle ThrottleConfig `json:"throttle"`
	Redis    RedisConfig    `json:"redis"`
	Postgres PostgresConfig `json:"postgres"`
	Media    MediaConfig    `json:"media"`
}

type ServerConfig struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
}

type AuthConfig struct {
	// Secret is only ever read from the environment (TASKGATE_SECRET);
	// a missing secret refuses startup rather than silently issuing
	// unverifiable tokens.
	Secret           string `json:"-"`
	AccessTTLMinutes int    `json:"access_ttl_minutes"`
	RefreshTTLHours  int    `json:"refresh_ttl_hours"`
}

type ScopeConfig struct {
	WindowSeconds int   `json:"window_seconds"`
	MaxCount      int64 `json:"max_count"`
}

type ThrottleConfig struct {
	// FailOpen decides behavior during counter store outages: allow
	// (true, default) or reject. Explicit so the tradeoff is a config
	// review item, not an accident.
	FailOpen       *bool                  `json:"fail_open"`
	StoreTimeoutMs int                    `json:"store_timeout_ms"`
	Scopes         map[string]ScopeConfig `json:"scopes"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return r.Host + ":" + port
}

type PostgresConfig struct {
	DSN string `json:"-"`
}

type MediaConfig struct {
	Dir           string `json:"dir"`
	MaxFileBytes  int64  `json:"max_file_bytes"`
	MaxFieldBytes int64  `json:"max_field_bytes"`
}

func Load(path string) (*Config, error) {
	config := defaults()

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := json.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Secrets and connection strings come from the environment
	config.Auth.Secret = os.Getenv("TASKGATE_SECRET")
	config.Redis.Password = os.Getenv("REDIS_PASSWORD")
	config.Postgres.DSN = os.Getenv("POSTGRES_DSN")
	if host := os.Getenv("REDIS_HOST"); host != "" {
		config.Redis.Host = host
	}

	if config.Auth.Secret == "" {
		return nil, errors.New("TASKGATE_SECRET is required")
	}
	if config.Postgres.DSN == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	return config, nil
}

func defaults() *Config {
	failOpen := true
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Environment: "development",
		},
		Auth: AuthConfig{
			AccessTTLMinutes: 15,
			RefreshTTLHours:  24,
		},
		Throttle: ThrottleConfig{
			FailOpen:       &failOpen,
			StoreTimeoutMs: 500,
			Scopes: map[string]ScopeConfig{
				"anon":    {WindowSeconds: 60, MaxCount: 60},
				"user":    {WindowSeconds: 60, MaxCount: 120},
				"auth":    {WindowSeconds: 60, MaxCount: 10},
				"uploads": {WindowSeconds: 3600, MaxCount: 20},
			},
		},
		Media: MediaConfig{
			Dir:           "media",
			MaxFileBytes:  10 << 20,
			MaxFieldBytes: 64 << 10,
		},
	}
}

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.Auth.AccessTTLMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.Auth.RefreshTTLHours) * time.Hour
}

func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.Throttle.StoreTimeoutMs) * time.Millisecond
}

func (c *Config) FailOpen() bool {
	if c.Throttle.FailOpen == nil {
		return true
	}
	return *c.Throttle.FailOpen
}
