package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"kernlog/internal/preflight"
)

func newBackendsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "Check which kernel log backends are usable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			results := preflight.RunAll(cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "OK"
				if !r.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail, r.Hint})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Check", "Status", "Detail", "Hint"},
				rows,
				tableLayout{wrap: map[int]int{3: 60}},
			))
			if !preflight.Passed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
