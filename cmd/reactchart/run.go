package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comalice/reactchart/internal/scenario"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>...",
		Short: "Run scenario files against the built-in charts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := scenario.NewRunner(a.logger, a.chartOptions()...)
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				sc, err := scenario.Load(path)
				if err != nil {
					return err
				}
				res, err := runner.Run(cmd.Context(), sc)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(out, "ok   %s (%d steps) active=%s\n", path, res.Steps, strings.Join(res.Active, ","))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
			}
			return nil
		},
	}
}
