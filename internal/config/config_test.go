package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromEnv(dir, filepath.Join(dir, "nonexistent.env"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "reviews"), cfg.Review.Dir)
	assert.Equal(t, "detached", cfg.Review.FallbackBranch)
	assert.Equal(t, "main", cfg.Review.BaseBranch)
	assert.Equal(t, 3*time.Second, cfg.Review.ResolveTimeout)
	assert.Equal(t, filepath.Join(dir, "revline.db"), cfg.Database.Path)
	assert.Equal(t, "WAL", cfg.Database.JournalMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "localhost:7177", cfg.Bridge.Addr)
	assert.Equal(t, dir, cfg.ConfigDir())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("REVLINE_REVIEWS_DIR", filepath.Join(dir, "custom-reviews"))
	t.Setenv("REVLINE_FALLBACK_BRANCH", "no-branch")
	t.Setenv("REVLINE_RESOLVE_TIMEOUT", "500ms")
	t.Setenv("REVLINE_LOG_LEVEL", "debug")
	t.Setenv("REVLINE_DB_BUSY_TIMEOUT", "1000")

	cfg, err := LoadFromEnv(dir, filepath.Join(dir, "nonexistent.env"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "custom-reviews"), cfg.Review.Dir)
	assert.Equal(t, "no-branch", cfg.Review.FallbackBranch)
	assert.Equal(t, 500*time.Millisecond, cfg.Review.ResolveTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 1000, cfg.Database.BusyTimeout)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	valid := New()
	valid.Review = ReviewConfig{
		Dir:            filepath.Join(dir, "reviews"),
		FallbackBranch: "detached",
		BaseBranch:     "main",
		ResolveTimeout: time.Second,
	}
	valid.Database = DatabaseConfig{
		Path:         filepath.Join(dir, "revline.db"),
		BusyTimeout:  5000,
		JournalMode:  "WAL",
		ConnMaxLife:  time.Minute,
		QueryTimeout: time.Second,
	}
	valid.Logging = LoggingConfig{Level: "info", Format: "text", Output: "stderr"}

	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty reviews dir", func(c *Config) { c.Review.Dir = "" }},
		{"empty fallback branch", func(c *Config) { c.Review.FallbackBranch = "" }},
		{"zero resolve timeout", func(c *Config) { c.Review.ResolveTimeout = 0 }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"zero busy timeout", func(c *Config) { c.Database.BusyTimeout = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("unknown"))
	assert.Equal(t, slog.Level(9999), ParseLogLevel("none"))
}

func TestGlobalConfig(t *testing.T) {
	Set(nil)
	_, err := Get()
	assert.Error(t, err, "Get should fail before Set")

	cfg := New()
	Set(cfg)

	got, err := Get()
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}
