package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/equivspec/packages/core/config"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var (
		force bool
		dir   string
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default equivspec configuration",
		Long: `Create a .equivspec.yaml holding the default comparison policy.

Examples:
  equivspec init
  equivspec init --force
  equivspec init --dir ./fixtures`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile := filepath.Join(dir, config.ConfigFilenames[0])

			if !force {
				if _, err := os.Stat(configFile); err == nil {
					return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", configFile))
				}
			}

			if err := config.DefaultConfig().SaveConfig(configFile); err != nil {
				return withExitCode(ExitConfigError, fmt.Errorf("failed to create config file: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)
			fmt.Fprintf(cmd.OutOrStdout(), "\nRun 'equivspec compare expected.json actual.json' to compare two documents.\n")
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration")
	initCmd.Flags().StringVar(&dir, "dir", ".", "Directory to create the configuration in")
	return initCmd
}
