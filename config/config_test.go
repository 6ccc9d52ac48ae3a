package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/krisalay/faculty-cache/config"
	"github.com/krisalay/faculty-cache/eviction"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.TTL)
	assert.Equal(t, "facultyData_", cfg.KeyPrefix)
	assert.Equal(t, 4, cfg.Shards)
	assert.Equal(t, 1024, cfg.Capacity)
	assert.Equal(t, eviction.LRU, cfg.EvictionPolicy())
	assert.Empty(t, cfg.SessionDB)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Dev)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FACULTY_CACHE_TTL", "90s")
	t.Setenv("FACULTY_CACHE_EVICTION", "FIFO")
	t.Setenv("FACULTY_API_BASE_URL", "https://faculty.example.edu/api")
	t.Setenv("FACULTY_CACHE_SESSION_DB", "/tmp/session.db")
	t.Setenv("FACULTY_CACHE_LOG_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.TTL)
	assert.Equal(t, eviction.FIFO, cfg.EvictionPolicy())
	assert.Equal(t, "https://faculty.example.edu/api", cfg.APIBaseURL)
	assert.Equal(t, "/tmp/session.db", cfg.SessionDB)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string][2]string{
		"unparseable ttl": {"FACULTY_CACHE_TTL", "soon"},
		"zero ttl":        {"FACULTY_CACHE_TTL", "0s"},
		"no shards":       {"FACULTY_CACHE_SHARDS", "0"},
		"unknown policy":  {"FACULTY_CACHE_EVICTION", "LFU"},
		"bad url":         {"FACULTY_API_BASE_URL", "not a url"},
		"bad level":       {"FACULTY_CACHE_LOG_LEVEL", "loud"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := config.Config{LogLevel: "warn", Dev: true}
	logger, err := config.NewLogger(cfg)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	_, err = config.NewLogger(config.Config{LogLevel: "loud"})
	assert.Error(t, err)
}
