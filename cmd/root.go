package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/port-tools/portcheck/internal/cmd"
	"github.com/port-tools/portcheck/internal/flags"
)

var version = "dev" // Set at build time using -ldflags

type RootCmd struct {
	*cmd.BaseCmd
}

func Execute() {
	logger, err := configureLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error executing root command: %s", err)
		os.Exit(1)
	}

	rootCmd := NewRootCmd(logger)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCmd(logger hclog.Logger) *cobra.Command {
	c := &RootCmd{
		BaseCmd: &cmd.BaseCmd{Logger: logger},
	}

	rootCmd := &cobra.Command{
		Use:          "portcheck <command> [args]",
		Short:        "'portcheck' validates entity descriptor YAML files against the Port catalog.",
		Long:         c.longDescription(),
		SilenceUsage: true,
		Version:      version,
	}

	// Global flags
	flags.InitFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(NewValidateCmd(logger))

	return rootCmd
}

func (c *RootCmd) longDescription() string {
	return `The 'portcheck' CLI validates locally-authored entity descriptor YAML files
against the Port catalog before they are merged: every referenced entity must
already exist, and every document must conform to the descriptor schema.
portcheck never creates or deletes entities; it only reads to confirm existence.`
}

func configureLogger() (hclog.Logger, error) {
	logPath := strings.TrimSpace(os.Getenv(flags.EnvVarLogPath))

	// If PORTCHECK_LOG_PATH is not set, don't log anywhere.
	logOutput := io.Discard

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file (%s): %w", logPath, err)
		}
		logOutput = f
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "portcheck",
		Level:  hclog.LevelFromString(getLogLevel()),
		Output: logOutput,
	})

	return logger, nil
}

func getLogLevel() string {
	lvl := strings.ToLower(os.Getenv(flags.EnvVarLogLevel))
	switch lvl {
	case "trace", "debug", "info", "warn", "error", "off":
		return lvl
	default:
		return "info"
	}
}
