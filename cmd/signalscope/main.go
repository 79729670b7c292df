package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/signalscope/internal/config"
	"github.com/vango-dev/signalscope/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app holds state shared by every command.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
	logger     *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "signalscope",
		Short: "Inspect and exercise nested signal tracking scopes",
		Long: `signalscope runs the nested tracking-scope runtime that lets render
functions and custom hooks re-render when the signals they read change.

Use it to print the scope transition table, replay demo scenarios,
or serve live scope metrics and events for a running renderer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: signalscope.json or signalscope.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		demoCmd(a),
		tableCmd(),
		serveCmd(a),
		versionCmd(),
	)

	return rootCmd
}

// load reads configuration and builds the logger.
func (a *app) load() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.LoadOptional(".")
	}
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
		if err := a.cfg.Validate(); err != nil {
			return err
		}
	}

	a.logger = a.cfg.Log.Logger(os.Stderr)
	slog.SetDefault(a.logger)
	return nil
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
