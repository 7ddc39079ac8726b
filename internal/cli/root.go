// Package cli implements the hazardwatch command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree. Subcommands load configuration
// from the environment when they run, not when the tree is built.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "hazardwatch",
		Short: "Natural hazard event dashboard service",
		Long: `hazardwatch ingests earthquake, volcano, and extreme weather events from
public feeds, filters them by kind, intensity, and recency, and serves them to
a map dashboard. Configuration is read from environment variables (and .env).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(
		newServeCommand(),
		newExportCommand(),
		newValidateCommand(),
		newFixturesCommand(),
	)
	return root
}

// Execute runs the CLI with args and the given context.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
