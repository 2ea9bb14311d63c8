// Package config holds the runner configuration: per-role default
// commands, display policy, carriage-return handling, and the color
// palette, loaded from a TOML file with RUSTIC_* environment overrides
// layered on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/tshepang/rustic/internal/ansi"
	"github.com/tshepang/rustic/internal/supervise"
)

// DisplayPolicy selects how the host presents the session log.
type DisplayPolicy string

const (
	// DisplayReplaceView shows the log in place of the current view.
	DisplayReplaceView DisplayPolicy = "replace"
	// DisplaySplitView shows the log beside the current view.
	DisplaySplitView DisplayPolicy = "split"
	// DisplayBackground keeps the log hidden until asked for.
	DisplayBackground DisplayPolicy = "background"
)

// RoleConfig is the per-role section.
type RoleConfig struct {
	// Command is the default command line for the role.
	Command string `toml:"command"`
}

// PaletteConfig maps the 16 base color slots to hex colors ("#rrggbb").
// Empty entries keep the built-in color.
type PaletteConfig struct {
	Black   string `toml:"black"`
	Red     string `toml:"red"`
	Green   string `toml:"green"`
	Yellow  string `toml:"yellow"`
	Blue    string `toml:"blue"`
	Magenta string `toml:"magenta"`
	Cyan    string `toml:"cyan"`
	White   string `toml:"white"`

	BrightBlack   string `toml:"bright_black"`
	BrightRed     string `toml:"bright_red"`
	BrightGreen   string `toml:"bright_green"`
	BrightYellow  string `toml:"bright_yellow"`
	BrightBlue    string `toml:"bright_blue"`
	BrightMagenta string `toml:"bright_magenta"`
	BrightCyan    string `toml:"bright_cyan"`
	BrightWhite   string `toml:"bright_white"`
}

// Config is the full runner configuration.
type Config struct {
	Build  RoleConfig `toml:"build"`
	Test   RoleConfig `toml:"test"`
	Format RoleConfig `toml:"format"`
	Lint   RoleConfig `toml:"lint"`

	// DisplayPolicy selects log presentation.
	DisplayPolicy DisplayPolicy `toml:"display_policy"`

	// CollapseCarriageReturns enables the sink's overwrite handling.
	CollapseCarriageReturns bool `toml:"collapse_carriage_returns"`

	// UsePTY spawns tools under a pseudo-terminal.
	UsePTY bool `toml:"use_pty"`

	// Env holds extra environment entries for spawned tools, for example
	// RUST_BACKTRACE.
	Env map[string]string `toml:"env"`

	// Palette overrides display colors.
	Palette PaletteConfig `toml:"palette"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Build:                   RoleConfig{Command: "cargo build"},
		Test:                    RoleConfig{Command: "cargo test"},
		Format:                  RoleConfig{Command: "cargo fmt"},
		Lint:                    RoleConfig{Command: "cargo clippy"},
		DisplayPolicy:           DisplayReplaceView,
		CollapseCarriageReturns: true,
	}
}

// Load reads the config file at path, layering it and then environment
// overrides over the defaults. A missing file is not an error; the
// defaults plus environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// defaults apply
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays RUSTIC_* environment variables.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("RUSTIC_BUILD_COMMAND"); ok {
		cfg.Build.Command = v
	}
	if v, ok := os.LookupEnv("RUSTIC_TEST_COMMAND"); ok {
		cfg.Test.Command = v
	}
	if v, ok := os.LookupEnv("RUSTIC_FORMAT_COMMAND"); ok {
		cfg.Format.Command = v
	}
	if v, ok := os.LookupEnv("RUSTIC_LINT_COMMAND"); ok {
		cfg.Lint.Command = v
	}
	if v, ok := os.LookupEnv("RUSTIC_DISPLAY_POLICY"); ok {
		cfg.DisplayPolicy = DisplayPolicy(v)
	}
	if v, ok := os.LookupEnv("RUSTIC_COLLAPSE_CR"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CollapseCarriageReturns = b
		}
	}
	if v, ok := os.LookupEnv("RUSTIC_USE_PTY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.UsePTY = b
		}
	}
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.DisplayPolicy {
	case DisplayReplaceView, DisplaySplitView, DisplayBackground:
		return nil
	default:
		return fmt.Errorf("unknown display policy %q", c.DisplayPolicy)
	}
}

// Command returns the configured default command for a role.
func (c Config) Command(role supervise.Role) string {
	switch role {
	case supervise.RoleBuild:
		return c.Build.Command
	case supervise.RoleTest:
		return c.Test.Command
	case supervise.RoleFormat:
		return c.Format.Command
	case supervise.RoleLint:
		return c.Lint.Command
	default:
		return ""
	}
}

// AnsiPalette converts the palette section to a display palette.
// Malformed entries keep the built-in color for their slot.
func (c Config) AnsiPalette() ansi.Palette {
	p := ansi.DefaultPalette()
	entries := []struct {
		idx int
		hex string
	}{
		{0, c.Palette.Black}, {1, c.Palette.Red},
		{2, c.Palette.Green}, {3, c.Palette.Yellow},
		{4, c.Palette.Blue}, {5, c.Palette.Magenta},
		{6, c.Palette.Cyan}, {7, c.Palette.White},
		{8, c.Palette.BrightBlack}, {9, c.Palette.BrightRed},
		{10, c.Palette.BrightGreen}, {11, c.Palette.BrightYellow},
		{12, c.Palette.BrightBlue}, {13, c.Palette.BrightMagenta},
		{14, c.Palette.BrightCyan}, {15, c.Palette.BrightWhite},
	}
	for _, e := range entries {
		if col, ok := parseHexColor(e.hex); ok {
			col.Index = e.idx
			p[e.idx] = col
		}
	}
	return p
}

// parseHexColor parses "#rrggbb".
func parseHexColor(s string) (ansi.Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return ansi.Color{}, false
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return ansi.Color{}, false
	}
	return ansi.Color{
		R: uint8(n >> 16),
		G: uint8(n >> 8),
		B: uint8(n),
	}, true
}
