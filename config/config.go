// Package config reads the cache's settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/krisalay/faculty-cache/eviction"
)

// Config holds every tunable. Zero-config gives the browser defaults: a
// 10 minute TTL, the facultyData_ prefix and an in-memory session store.
type Config struct {
	TTL       time.Duration `env:"FACULTY_CACHE_TTL" envDefault:"10m" validate:"gt=0"`
	KeyPrefix string        `env:"FACULTY_CACHE_KEY_PREFIX" envDefault:"facultyData_" validate:"required"`

	Shards   int    `env:"FACULTY_CACHE_SHARDS" envDefault:"4" validate:"min=1,max=1024"`
	Capacity int    `env:"FACULTY_CACHE_CAPACITY" envDefault:"1024" validate:"min=0"`
	Eviction string `env:"FACULTY_CACHE_EVICTION" envDefault:"LRU" validate:"oneof=LRU FIFO"`

	// APIBaseURL is the faculty API root. Empty means the demo starts its
	// own in-process API.
	APIBaseURL string `env:"FACULTY_API_BASE_URL" validate:"omitempty,url"`

	// SessionDB is a SQLite path for the session store. Empty keeps it in memory.
	SessionDB string `env:"FACULTY_CACHE_SESSION_DB"`
	SessionID string `env:"FACULTY_CACHE_SESSION_ID"`

	// SectionsFile overrides the built-in section registry.
	SectionsFile string `env:"FACULTY_CACHE_SECTIONS_FILE"`

	LogLevel string `env:"FACULTY_CACHE_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Dev      bool   `env:"FACULTY_CACHE_DEV" envDefault:"false"`
}

var validate = validator.New()

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// EvictionPolicy is the validated memory-tier policy.
func (c Config) EvictionPolicy() eviction.PolicyType {
	p, err := eviction.ParsePolicyType(c.Eviction)
	if err != nil {
		return eviction.LRU
	}
	return p
}

// NewLogger builds a production JSON logger, or a development console
// logger when Dev is set, at the configured level.
func NewLogger(c Config) (*zap.Logger, error) {
	var zc zap.Config
	if c.Dev {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	level := zap.InfoLevel
	if c.LogLevel != "" {
		if err := level.Set(c.LogLevel); err != nil {
			return nil, fmt.Errorf("log level %q: %w", c.LogLevel, err)
		}
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
