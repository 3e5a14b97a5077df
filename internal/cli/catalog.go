package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"kitchensync/internal/models"
	"kitchensync/internal/recipe"
)

func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the built-in recipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recipes, err := recipe.Builtin()
			if err != nil {
				return err
			}
			return writeCatalog(cmd.OutOrStdout(), rootOpts.Format, recipes)
		},
	}
}

func writeCatalog(w io.Writer, format string, recipes []models.Recipe) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(recipes); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tMEALS\tMINUTES\tINGREDIENTS")
	for _, r := range recipes {
		meals := make([]string, len(r.MealType))
		for i, mt := range r.MealType {
			meals[i] = string(mt)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", r.ID, r.Title, strings.Join(meals, ","), r.TotalTime(), len(r.Ingredients))
	}
	return tw.Flush()
}
