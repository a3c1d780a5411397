package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/comalice/reactchart/internal/catalog"
)

func newChartsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "charts",
		Short: "List the built-in charts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range catalog.Names() {
				e, _ := catalog.Lookup(name)
				fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Description)
			}
			return w.Flush()
		},
	}
}
