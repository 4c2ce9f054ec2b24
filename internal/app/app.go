// Package app provides the application initialization and lifecycle management
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/revlinehq/revline/internal/comment"
	"github.com/revlinehq/revline/internal/config"
	"github.com/revlinehq/revline/internal/database"
	"github.com/revlinehq/revline/internal/git"
	"github.com/revlinehq/revline/internal/loggy"
	"github.com/revlinehq/revline/internal/session"
)

// App represents the application instance with its dependencies
type App struct {
	Config  *config.Config
	Git     *git.Service
	Session *session.Manager
}

// New initializes a new application instance with all its dependencies
func New() (*App, error) {
	cfg, err := initConfig()
	if err != nil {
		return nil, err
	}

	if err := initLogger(cfg); err != nil {
		return nil, err
	}

	loggy.Info("Application initializing",
		"version", os.Getenv("VERSION"),
		"log_level", cfg.Logging.Level,
	)

	// A broken database degrades to an unbacked session instead of refusing
	// to start; the JSON artifact still provides persistence across runs.
	var store comment.Store
	if err := database.InitDB(cfg); err != nil {
		loggy.Warn("Database unavailable, comments will not be stored durably", "error", err)
	} else if err := database.RunMigrations(); err != nil {
		loggy.Warn("Database migration failed, comments will not be stored durably", "error", err)
	} else {
		db, err := database.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database connection: %w", err)
		}
		store = comment.NewSQLStore(db, loggy.GetGlobalLogger())
	}

	logger := loggy.GetGlobalLogger()

	gitService := git.NewService(logger)
	if err := gitService.InitRepo(cfg.Git.RepoPath); err != nil {
		// Session falls back to the configured default branch
		loggy.Debug("No git repository found", "path", cfg.Git.RepoPath, "error", err)
	}

	manager := session.NewManager(cfg, gitService, store, logger)
	if err := manager.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to start review session: %w", err)
	}

	loggy.Info("Application initialized successfully")
	return &App{
		Config:  cfg,
		Git:     gitService,
		Session: manager,
	}, nil
}

// initConfig loads and sets up the application configuration
func initConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv("", "")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	config.Set(cfg)
	return cfg, nil
}

// initLogger initializes the logging system
func initLogger(cfg *config.Config) error {
	err := loggy.Init(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  false,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the application
func (app *App) Shutdown() error {
	loggy.Info("Shutting down application")

	// Let in-flight artifact exports and durable writes finish
	if app.Session != nil {
		app.Session.Wait()
	}

	if err := database.CloseDB(); err != nil {
		loggy.Error("Error closing database connection", "error", err)
	}

	return nil
}

// FromContext retrieves the App instance from the CLI context
func FromContext(c *cli.Context) (*App, error) {
	if c.App.Metadata == nil {
		return nil, fmt.Errorf("app metadata not found in context")
	}

	app, ok := c.App.Metadata["app"].(*App)
	if !ok {
		return nil, fmt.Errorf("app instance not found in context")
	}

	return app, nil
}
