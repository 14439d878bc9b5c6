package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/migral/migral/internal/merr"
	"github.com/migral/migral/pkg/migral"
)

// Config represents the migral.yaml configuration file.
type Config struct {
	DatabaseURL   string `yaml:"database_url"`
	MigrationsDir string `yaml:"migrations_dir"`
	Dialect       string `yaml:"dialect"`
	Lockfile      string `yaml:"lockfile"`
}

// loadConfig loads configuration from file, env vars, and CLI flags.
// Precedence: CLI flags > env vars > config file > defaults
func loadConfig() (*Config, error) {
	cfg := &Config{
		MigrationsDir: "./migrations",
		Lockfile:      "migral.lock",
	}

	// Load config file if it exists
	if data, err := os.ReadFile(configFile); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, merr.Wrap(merr.ErrConfig, err, "could not parse config file").
				WithFile(configFile)
		}
		// Handle env var interpolation in database_url
		cfg.DatabaseURL = expandEnvVars(cfg.DatabaseURL)
	}

	// Override with env vars
	if envURL := os.Getenv("DATABASE_URL"); envURL != "" && databaseURL == "" {
		cfg.DatabaseURL = envURL
	}
	if envDir := os.Getenv("MIGRAL_MIGRATIONS_DIR"); envDir != "" && migrationsDir == "" {
		cfg.MigrationsDir = envDir
	}

	// Override with CLI flags (highest priority)
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if migrationsDir != "" {
		cfg.MigrationsDir = migrationsDir
	}

	return cfg, nil
}

// expandEnvVars expands ${VAR} patterns in a string.
func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}

// clientOptions builds the shared option list from config.
func clientOptions(cfg *Config) []migral.Option {
	opts := []migral.Option{
		migral.WithMigrationsDir(cfg.MigrationsDir),
		migral.WithLockfilePath(cfg.Lockfile),
	}
	if cfg.DatabaseURL != "" {
		opts = append(opts, migral.WithDatabaseURL(cfg.DatabaseURL))
	}
	if cfg.Dialect != "" {
		opts = append(opts, migral.WithDialect(cfg.Dialect))
	}
	return opts
}

// newClient creates a connected client from config.
func newClient() (*migral.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, migral.ErrMissingDatabaseURL
	}

	return migral.New(clientOptions(cfg)...)
}

// newOfflineClient creates a client that only reads node files.
// Use for operations like check, schema, and lock.
func newOfflineClient() (*migral.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	opts := append(clientOptions(cfg), migral.WithOffline())
	return migral.New(opts...)
}

// requireMigrationsDir exits with help when the migration tree is missing.
func requireMigrationsDir(cfg *Config) error {
	info, err := os.Stat(cfg.MigrationsDir)
	if err != nil || !info.IsDir() {
		printHelp("migrations_dir_not_found", cfg.MigrationsDir)
		os.Exit(1)
	}
	return nil
}

// pluralize returns "1 node" or "n nodes".
func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
