package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/port-tools/portcheck/internal/flags"
)

// BaseCmd carries state shared by every portcheck command.
type BaseCmd struct {
	Logger hclog.Logger
}

// Log returns the command's logger, building a fallback from flags and
// environment when none was injected.
func (c *BaseCmd) Log() hclog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	// Get log level from flags first, then environment, then default
	logLevel := flags.LogLevel
	if logLevel == "" {
		logLevel = strings.ToLower(os.Getenv(flags.EnvVarLogLevel))
		if logLevel == "" {
			logLevel = flags.DefaultLogLevel
		}
	}

	// Get log path from flags first, then environment
	logPath := flags.LogPath
	if logPath == "" {
		logPath = strings.TrimSpace(os.Getenv(flags.EnvVarLogPath))
	}

	var output io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			output = f
		}
	}

	c.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   "portcheck-default",
		Level:  hclog.LevelFromString(logLevel),
		Output: output,
	})

	return c.Logger
}
