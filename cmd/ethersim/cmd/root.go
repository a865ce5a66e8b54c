// Package cmd provides the command-line interface for ethersim.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	envLogLevel    = "ETHERSIM_LOG_LEVEL"
	envMonitorPort = "ETHERSIM_MONITOR_PORT"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "ethersim",
		Short: "ethersim simulates switched Ethernet networks.",
		Long: `ethersim builds a network of learning switches and hosts from ` +
			`a topology file, injects traffic and reports where every ` +
			`packet went.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := buildLogger(opts)
			if err != nil {
				return err
			}

			zap.ReplaceGlobals(logger)

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level",
		envOr(envLogLevel, "warn"),
		"Minimum log level (debug, info, warn, error).")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format",
		"console", "Log encoding, console or json.")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newDemoCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute loads the .env defaults and runs the root command.
func Execute() error {
	if err := loadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return err
	}

	err := newRootCmd().Execute()
	if err != nil {
		return err
	}

	return nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}

	return fallback
}

func buildLogger(opts *rootOptions) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(opts.logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var config zap.Config

	switch opts.logFormat {
	case "console":
		config = zap.NewDevelopmentConfig()
		config.Development = false
	case "json":
		config = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.logFormat)
	}

	config.Level = zap.NewAtomicLevelAt(level)

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}
