package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// LoadFromEnv loads configuration from environment variables
// Parameters:
// - configDir: Directory containing config files (or empty for default)
// - configFilePath: Path to .env file (or empty for default)
func LoadFromEnv(configDir string, configFilePath string) (*Config, error) {
	cfg := New()

	// If configDir is empty, use the default
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".revline")

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	cfg.configDir = configDir

	// Default database and log paths are in the config directory
	defaultDBPath := filepath.Join(configDir, "revline.db")
	defaultLogPath := filepath.Join(configDir, "revline.log")
	defaultReviewsDir := filepath.Join(configDir, "reviews")

	// Use provided config file path or default
	if configFilePath == "" {
		configFilePath = filepath.Join(configDir, ".env")
	}

	// Check if ENV_FILE_PATH is set to load from a custom .env file
	envFilePath := getEnvString("ENV_FILE_PATH", "")
	if envFilePath != "" {
		// User specified a custom env file path
		if err := godotenv.Load(envFilePath); err != nil {
			return nil, fmt.Errorf("failed to load env file from %s: %w", envFilePath, err)
		}
	} else {
		// Try to load from config directory first
		if err := godotenv.Load(configFilePath); err != nil {
			// Then try current directory as fallback
			_ = godotenv.Load() // Ignore errors if file doesn't exist
		}
	}

	// Review Configuration
	cfg.Review = ReviewConfig{
		Dir:            getEnvString("REVLINE_REVIEWS_DIR", defaultReviewsDir),
		FallbackBranch: getEnvString("REVLINE_FALLBACK_BRANCH", "detached"),
		BaseBranch:     getEnvString("REVLINE_BASE_BRANCH", "main"),
		ResolveTimeout: getEnvDuration("REVLINE_RESOLVE_TIMEOUT", 3*time.Second),
		WriteRetries:   getEnvUint64("REVLINE_WRITE_RETRIES", 3),
	}

	// Git Configuration
	cfg.Git = GitConfig{
		RepoPath: getEnvString("REVLINE_REPO_PATH", ""),
	}

	// Database Configuration
	cfg.Database = DatabaseConfig{
		Path:            getEnvString("REVLINE_DB_PATH", defaultDBPath),
		BusyTimeout:     getEnvInt("REVLINE_DB_BUSY_TIMEOUT", 5000),
		JournalMode:     getEnvString("REVLINE_DB_JOURNAL_MODE", "WAL"),
		SynchronousMode: getEnvString("REVLINE_DB_SYNCHRONOUS_MODE", "NORMAL"),
		ForeignKeys:     getEnvBool("REVLINE_DB_FOREIGN_KEYS", true),
		ConnMaxLife:     getEnvDuration("REVLINE_DB_CONN_MAX_LIFE", 5*time.Minute),
		QueryTimeout:    getEnvDuration("REVLINE_DB_QUERY_TIMEOUT", 30*time.Second),
	}

	// Logging Configuration
	cfg.Logging = LoggingConfig{
		Level:      getEnvString("REVLINE_LOG_LEVEL", "info"),
		Format:     getEnvString("REVLINE_LOG_FORMAT", "text"),
		Output:     getEnvString("REVLINE_LOG_OUTPUT", defaultLogPath),
		TimeFormat: getEnvString("REVLINE_LOG_TIME_FORMAT", time.RFC3339),
	}

	// Bridge Configuration
	cfg.Bridge = BridgeConfig{
		Addr:    getEnvString("REVLINE_BRIDGE_ADDR", "localhost:7177"),
		Timeout: getEnvDuration("REVLINE_BRIDGE_TIMEOUT", 10*time.Second),
	}

	// Validate the configuration
	return cfg, cfg.Validate()
}
