// cmd/list.go
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/loginprobe/internal/runner"
	"github.com/xkilldash9x/loginprobe/internal/scenario"
)

func newListCmd() *cobra.Command {
	var categories []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the available scenarios",
		Args:  cobra.NoArgs,
		// Listing the catalog needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := runner.Select(scenario.Catalog(), categories, nil)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tSCENARIO\tDESCRIPTION")
			for _, sc := range selected {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", sc.Category, sc.Name, sc.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringSliceVar(&categories, "category", nil, "only list scenarios in these categories")
	return cmd
}
