// Package cli provides Cargo/rustc-style terminal output for migral:
// colored diagnostics, node file excerpts, tables, and badges, with a
// plain fallback for pipes and CI.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// OutputMode selects how output is rendered.
type OutputMode int

const (
	// ModeTTY renders colors and borders for interactive terminals.
	ModeTTY OutputMode = iota
	// ModePlain renders unstyled text for pipes and CI logs.
	ModePlain
	// ModeJSON is set by commands that emit structured JSON.
	ModeJSON
)

// Config holds the process-wide output settings. It is detected once
// at startup rather than configured by the user.
type Config struct {
	Mode   OutputMode
	Width  int
	Writer io.Writer
}

// DefaultConfig detects the output mode for the current process:
// ModeTTY when stdout is a terminal, ModePlain when piped, and
// ModePlain whenever NO_COLOR or TERM=dumb is set.
func DefaultConfig() *Config {
	mode := ModePlain
	width := 80

	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		mode = ModeTTY
	}

	// https://no-color.org/
	if os.Getenv("NO_COLOR") != "" {
		mode = ModePlain
	}
	if os.Getenv("TERM") == "dumb" {
		mode = ModePlain
	}

	if w := lipgloss.Width(""); w > 0 {
		width = w
	}

	return &Config{
		Mode:   mode,
		Width:  width,
		Writer: os.Stdout,
	}
}

// IsTTY reports whether rich terminal output is active.
func (c *Config) IsTTY() bool { return c.Mode == ModeTTY }

// IsPlain reports whether unstyled output is active.
func (c *Config) IsPlain() bool { return c.Mode == ModePlain }

// IsJSON reports whether structured JSON output is active.
func (c *Config) IsJSON() bool { return c.Mode == ModeJSON }

var defaultCfg *Config

// Default returns the process-wide config, detecting it on first use.
func Default() *Config {
	if defaultCfg == nil {
		defaultCfg = DefaultConfig()
	}
	return defaultCfg
}

// SetDefault replaces the process-wide config. Commands use it for
// --json output; tests use it to pin a deterministic mode.
func SetDefault(cfg *Config) {
	defaultCfg = cfg
}

// EnableColors reports whether styled output should be emitted.
func EnableColors() bool {
	return Default().IsTTY()
}
