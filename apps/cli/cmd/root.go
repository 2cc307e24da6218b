package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "equivspec",
		Short: "Structural equivalency for documents and values.",
		Long: `equivspec compares an expectation with a subject member by member and
reports every difference with the path it was found at. Collections may be
compared in any order, members may be included or excluded by pattern and
values may be converted before they are compared.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	return rootCmd
}

func Execute(v, bt string) {
	version = v
	buildTime = bt

	err := newRootCmd().Execute()
	if err != nil {
		var e *exitError
		if !errors.As(err, &e) || e.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	os.Exit(exitCode(err))
}
