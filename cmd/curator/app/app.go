// Package app provides the application context and dependency
// management for the curator CLI. It centralizes configuration,
// logging, and the step registry so commands receive their dependencies
// instead of reaching for globals.
package app

import (
	"github.com/rs/zerolog"

	"github.com/openshelf/curator/pkg/pipeline"
	"github.com/openshelf/curator/pkg/pipeline/builtin"
)

// App represents the curator application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	// Step registry used to resolve pipeline configurations
	registry *pipeline.Registry
}

// New creates a new App instance with the given version information.
func New(version, commit, date string, opts ...Option) (*App, error) {
	app := &App{
		version:  version,
		commit:   commit,
		date:     date,
		registry: builtin.Registry(),
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version string.
func (a *App) Version() string {
	return a.version
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// Registry returns the step registry.
func (a *App) Registry() *pipeline.Registry {
	return a.registry
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithRegistry sets a custom step registry (useful for testing).
func WithRegistry(registry *pipeline.Registry) Option {
	return func(a *App) error {
		a.registry = registry
		return nil
	}
}
