package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format       string // "text" | "yaml"
	DatabasePath string
}

var ValidFormats = []string{"text", "yaml"}

// NewRootCommand creates the kitchensync command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "kitchensync",
		Short: "KitchenSync - pantry, recipes and meal plans",
		Long:  "Track what is in your pantry, find recipes you can cook with it, plan meals for the week and keep a shopping list.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|yaml)")
	cmd.PersistentFlags().StringVar(&opts.DatabasePath, "db", "", "database path (overrides DATABASE_PATH)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}
