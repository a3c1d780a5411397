package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/reactchart/internal/catalog"
	"github.com/comalice/reactchart/visualize"
)

func newGraphCmd(a *app) *cobra.Command {
	var format string
	var enter bool
	cmd := &cobra.Command{
		Use:   "graph <chart>",
		Short: "Export a built-in chart as Graphviz DOT or JSON",
		Long:  `Builds the named chart and prints its state tree. With --enter the chart is entered first so the initial configuration is highlighted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Build(args[0], a.chartOptions()...)
			if err != nil {
				return err
			}
			if enter {
				if err := c.Enter(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			switch format {
			case "dot":
				fmt.Fprint(out, visualize.DOT(c))
			case "json":
				data, err := visualize.JSON(c)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			default:
				return fmt.Errorf("unknown format %q (want dot or json)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "dot", "output format: dot or json")
	cmd.Flags().BoolVar(&enter, "enter", false, "enter the chart before rendering")
	return cmd
}
