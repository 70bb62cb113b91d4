package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shuttle/internal/api"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent finished operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := ctx.client().History()
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.HistoryResponse{Records: records})
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "History is empty")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, record := range records {
				result := "ok"
				if !record.Success {
					result = "failed"
				}
				rows = append(rows, []string{
					record.Title,
					record.Operation,
					result,
					record.Timestamp.Local().Format(time.RFC3339),
					record.Error,
				})
			}
			out := renderTable(
				[]string{"Title", "Operation", "Result", "When", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}
