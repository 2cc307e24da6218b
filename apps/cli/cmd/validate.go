package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/equivspec/packages/core/config"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config>...",
		Short: "Validate equivspec configuration files",
		Long: `Validate configuration files without comparing anything.

Examples:
  equivspec validate .equivspec.yaml
  equivspec validate ci.equivspec.yaml equivspec.config.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hasErrors := false
			for _, file := range args {
				cfg, err := config.LoadConfig(file)
				if err == nil {
					err = cfg.Validate()
				}
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
					hasErrors = true
					continue
				}
				if cfg.IsDefault() {
					fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (defaults only)\n", file)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
				}
			}

			if hasErrors {
				return withExitCode(ExitConfigError, fmt.Errorf("validation failed"))
			}
			return nil
		},
	}
}
