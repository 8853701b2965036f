// REPL binary for interactively building SELECT statements with named
// windows and checking them against a database.
//
// Configuration, lowest to highest precedence: defaults, --config YAML file,
// SQLWINDOW_* environment variables (SQLWINDOW_ENGINE, SQLWINDOW_DSN, ...),
// command-line flags.
//
// Usage:
//
//	go run ./cmd/repl --engine sqlite --dsn :memory:
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "sqlwindow",
		Short: "Interactive builder for SELECT statements with named windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runREPL(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "YAML config file")
	cmd.Flags().StringP("engine", "e", "", "Database engine (postgres, mysql, sqlite)")
	cmd.Flags().String("dsn", "", "Connect to this DSN on start")
	cmd.Flags().String("history-file", "", "Readline history file")
	cmd.Flags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("parameterize", true, "Render literal values as bind parameters")
	cmd.Flags().Bool("multiline", false, "Render one clause per line")
	cmd.Flags().String("window-refs", "", "WINDOW clause checking (off, verify, auto)")

	_ = cmd.RegisterFlagCompletionFunc("engine", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"postgres", "mysql", "sqlite"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("window-refs", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return refsModes, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runREPL(cfg *Config, stdout, stderr io.Writer) error {
	logger := newLogger(cfg, stderr)
	sess := NewSession(cfg, logger)
	sess.out = stdout
	defer sess.close()

	rl, err := readline.NewFromConfig(&readline.Config{
		Prompt:          "sqlwindow> ",
		HistoryFile:     cfg.HistoryFile,
		HistoryLimit:    500,
		AutoComplete:    &replCompleter{sess: sess},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          stdout,
		Stderr:          stderr,
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer func() { _ = rl.Close() }()

	logger.Debug("starting repl", "engine", cfg.Engine, "window_refs", sess.refs)
	if cfg.DSN != "" {
		if err := sess.Execute("connect " + cfg.DSN); err != nil {
			_, _ = fmt.Fprintf(stderr, "  Warning: %v\n", err)
		}
	}

	_, _ = fmt.Fprintln(stdout, "sqlwindow REPL - type 'help' for commands, 'exit' to quit")
	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			break // io.EOF or a closed terminal
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			break
		}
		if err := sess.Execute(line); err != nil {
			_, _ = fmt.Fprintf(stderr, "  Error: %v\n", err)
		}
	}
	_, _ = fmt.Fprintln(stdout)
	return nil
}
