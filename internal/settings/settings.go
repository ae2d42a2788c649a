// Package settings resolves the Port API credentials for a run.
package settings

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/port-tools/portcheck/internal/errors"
)

const (
	// EnvVarClientID is the env var holding the Port client ID.
	EnvVarClientID = "PORT_CLIENT_ID"

	// EnvVarClientSecret is the env var holding the Port client secret.
	EnvVarClientSecret = "PORT_CLIENT_SECRET"

	// DotEnvFile is loaded before reading the environment, when present.
	// Values already set in the environment take precedence.
	DotEnvFile = ".env"
)

// Settings holds the credentials required to talk to the Port API.
// Immutable once loaded; constructed once at process start and passed
// explicitly to every component that needs it.
type Settings struct {
	ClientID     string
	ClientSecret string
}

// Load reads both credential variables from the process environment,
// first loading a .env file if one exists in the working directory.
// It fails with a configuration error naming every missing variable.
func Load() (Settings, error) {
	// godotenv never overrides variables that are already set.
	_ = godotenv.Load(DotEnvFile)

	var missing []string

	clientID := strings.TrimSpace(os.Getenv(EnvVarClientID))
	if clientID == "" {
		missing = append(missing, EnvVarClientID)
	}

	clientSecret := strings.TrimSpace(os.Getenv(EnvVarClientSecret))
	if clientSecret == "" {
		missing = append(missing, EnvVarClientSecret)
	}

	if len(missing) > 0 {
		return Settings{}, fmt.Errorf(
			"%w: missing required environment variable(s): %s",
			errors.ErrConfiguration,
			strings.Join(missing, ", "),
		)
	}

	return Settings{
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}, nil
}
