package migral

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/migral/migral/internal/dialect"
	"github.com/migral/migral/internal/history"
)

// Client is the main entry point for the migral migration engine.
//
// Create a client with New() and close it with Close() when done.
//
// Example:
//
//	client, err := migral.New(
//	    migral.WithDatabaseURL("postgres://localhost/crisisdb"),
//	    migral.WithMigrationsDir("./migrations"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	result, err := client.Apply(context.Background())
type Client struct {
	config  *Config
	dialect dialect.Dialect
	ledger  *history.Ledger
}

// New creates a new Client with the given options.
//
// WithDatabaseURL is required unless WithOffline is set. The dialect is
// auto-detected from the URL if not explicitly set.
func New(opts ...Option) (*Client, error) {
	cfg := &Config{
		MigrationsDir: "./migrations",
		LockfilePath:  "migral.lock",
		Timeout:       30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Dialect == "" && cfg.DatabaseURL != "" {
		cfg.Dialect = detectDialect(cfg.DatabaseURL)
	}

	if cfg.Offline {
		d := dialect.Get(cfg.Dialect)
		if d == nil && cfg.Dialect != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, cfg.Dialect)
		}
		if d == nil {
			// DDL rendering needs some dialect; postgres is the default
			// target.
			d = dialect.Postgres()
			cfg.Dialect = d.Name()
		}
		return &Client{config: cfg, dialect: d}, nil
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	d := dialect.Get(cfg.Dialect)
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, cfg.Dialect)
	}

	ledger, err := history.Open(cfg.Dialect, dsnFromURL(cfg.DatabaseURL, cfg.Dialect))
	if err != nil {
		return nil, &ConnectionError{
			URL:     redactURL(cfg.DatabaseURL),
			Dialect: cfg.Dialect,
			Cause:   err,
		}
	}

	db := ledger.DB()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := ledger.EnsureTable(ctx); err != nil {
		ledger.Close()
		return nil, err
	}

	return &Client{config: cfg, dialect: d, ledger: ledger}, nil
}

// Close closes the database connection and releases resources.
func (c *Client) Close() error {
	if c.ledger == nil {
		return nil
	}
	return c.ledger.Close()
}

// DB returns the underlying database connection, or nil in offline mode.
// Prefer the high-level methods when possible.
func (c *Client) DB() *sql.DB {
	if c.ledger == nil {
		return nil
	}
	return c.ledger.DB()
}

// Dialect returns the SQL dialect name.
func (c *Client) Dialect() string {
	return c.dialect.Name()
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return *c.config
}

// log logs a message if a logger is configured.
func (c *Client) log(format string, v ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Printf(format, v...)
	}
}

// context returns a context bounded by the configured timeout.
func (c *Client) context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, c.config.Timeout)
}

// detectDialect auto-detects the SQL dialect from the connection URL.
//
// Detection rules:
//   - postgres:// or postgresql:// -> postgres
//   - sqlite:// or file: or path ending with .db/.sqlite/.sqlite3 -> sqlite
func detectDialect(url string) string {
	url = strings.ToLower(url)

	switch {
	case strings.HasPrefix(url, "postgres://"),
		strings.HasPrefix(url, "postgresql://"):
		return "postgres"

	case strings.HasPrefix(url, "sqlite://"),
		strings.HasPrefix(url, "sqlite3://"),
		strings.HasPrefix(url, "file:"):
		return "sqlite"

	case strings.HasSuffix(url, ".db"),
		strings.HasSuffix(url, ".sqlite"),
		strings.HasSuffix(url, ".sqlite3"):
		return "sqlite"
	}

	return "postgres"
}

// dsnFromURL converts a user-facing URL to the driver DSN. SQLite URLs
// shed their scheme prefix; everything else passes through.
func dsnFromURL(url, dialectName string) string {
	if dialectName != "sqlite" {
		return url
	}
	url = strings.TrimPrefix(url, "sqlite://")
	url = strings.TrimPrefix(url, "sqlite3://")
	return url
}

// redactURL removes credentials from a database URL for logging.
func redactURL(url string) string {
	start := strings.Index(url, "://")
	if start == -1 {
		return url
	}
	start += 3

	end := strings.Index(url[start:], "@")
	if end == -1 {
		return url
	}
	end += start

	credentials := url[start:end]
	if colonIdx := strings.Index(credentials, ":"); colonIdx != -1 {
		user := credentials[:colonIdx]
		return url[:start] + user + ":***@" + url[end+1:]
	}

	return url
}
