package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/bawdo/sqlwindow/internal/sqlcheck"
)

const envPrefix = "SQLWINDOW_"

// Config holds REPL settings.
type Config struct {
	Engine       string `koanf:"engine"`
	DSN          string `koanf:"dsn"`
	HistoryFile  string `koanf:"history_file"`
	LogLevel     string `koanf:"log_level"`
	Parameterize bool   `koanf:"parameterize"`
	Multiline    bool   `koanf:"multiline"`
	WindowRefs   string `koanf:"window_refs"`
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sqlwindow_history")
}

// loadConfig merges, lowest to highest precedence: defaults, the YAML file
// at cfgFile (if any), SQLWINDOW_* environment variables, explicitly set flags.
func loadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"engine":       sqlcheck.SQLite,
		"dsn":          "",
		"history_file": defaultHistoryFile(),
		"log_level":    "warn",
		"parameterize": true,
		"multiline":    false,
		"window_refs":  refsAuto,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// SQLWINDOW_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !isValidEngine(c.Engine) {
		return fmt.Errorf("invalid engine %q (choose: %s)", c.Engine, strings.Join(sqlcheck.Engines(), ", "))
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := parseRefsMode(c.WindowRefs); err != nil {
		return err
	}
	return nil
}

func isValidEngine(engine string) bool {
	for _, e := range sqlcheck.Engines() {
		if e == engine {
			return true
		}
	}
	return false
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q (choose: debug, info, warn, error)", s)
	}
	return level, nil
}

// newLogger writes text records at or above level to w.
func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	level, _ := parseLogLevel(cfg.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
