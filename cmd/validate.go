package cmd

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/port-tools/portcheck/internal/client"
	"github.com/port-tools/portcheck/internal/cmd"
	"github.com/port-tools/portcheck/internal/config"
	"github.com/port-tools/portcheck/internal/discover"
	"github.com/port-tools/portcheck/internal/flags"
	"github.com/port-tools/portcheck/internal/printer"
	"github.com/port-tools/portcheck/internal/settings"
	"github.com/port-tools/portcheck/internal/validator"
)

// ValidateCmd should be used to represent the 'validate' command.
type ValidateCmd struct {
	*cmd.BaseCmd
	Paths []string
}

// NewValidateCmd creates a newly configured (Cobra) command.
func NewValidateCmd(logger hclog.Logger) *cobra.Command {
	c := &ValidateCmd{
		BaseCmd: &cmd.BaseCmd{Logger: logger},
	}

	cobraCommand := &cobra.Command{
		Use:   "validate [--paths path ...]",
		Short: "Validates entity descriptor YAML files against the Port catalog.",
		Long:  c.longDescription(),
		RunE:  c.run,
	}

	cobraCommand.Flags().StringArrayVar(
		&c.Paths,
		"paths",
		nil,
		"Files or directories to validate (can be repeated); defaults to the working directory",
	)

	return cobraCommand
}

// longDescription returns the long version of the command description.
func (c *ValidateCmd) longDescription() string {
	return `Validates entity descriptor YAML files against the Port catalog.
Each document must have the required descriptor shape, and every referenced
entity must already exist in the catalog: updates only, creation is disallowed.
Without --paths, YAML files directly under the working directory are validated;
reserved configuration directories such as .github are never scanned.`
}

// run is configured (via NewValidateCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *ValidateCmd) run(cobraCmd *cobra.Command, args []string) error {
	ctx := cobraCmd.Context()
	logger := c.Log()

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return err
	}

	creds, err := settings.Load()
	if err != nil {
		return err
	}

	discoverer := discover.New(logger, cfg.ExcludeDirs)
	files, issues := discoverer.Files(c.Paths)

	// Authenticate only when there is remote work to do: a run that found
	// nothing to validate should not perform a token exchange.
	apiClient := client.New(logger, creds, cfg)
	if len(files) > 0 {
		if err := apiClient.Authenticate(ctx); err != nil {
			return err
		}
	}

	v := validator.New(logger, apiClient, discoverer)

	report, err := v.Validate(ctx, files, issues)
	if err != nil {
		return err
	}

	printer.NewReportPrinter().Print(cobraCmd.OutOrStdout(), report)

	logger.Debug("Validation run complete",
		"files", report.Total(),
		"failed", report.Failed(),
	)

	if !report.Passed() {
		return fmt.Errorf("validation failed for %d of %d file(s)", report.Failed(), report.Total())
	}

	return nil
}
