package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shuttle/internal/verify"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Run and inspect library integrity scans",
	}

	verifyCmd.AddCommand(newVerifyRunCommand(ctx))
	verifyCmd.AddCommand(newVerifyStatusCommand(ctx))

	return verifyCmd
}

func newVerifyRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one integrity scan pass over the configured root",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Verify.Root == "" {
				return fmt.Errorf("verify.root is not configured")
			}

			store, err := verify.OpenStore(cfg.VerifyDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			scanner := verify.NewScanner(cfg.Verify, cfg.Tools, store, nil)
			report, err := scanner.Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Scanned:  %d\n", report.Scanned)
			fmt.Fprintf(out, "Baseline: %d\n", report.Baseline)
			fmt.Fprintf(out, "Verified: %d\n", report.Verified)
			fmt.Fprintf(out, "Corrupt:  %d\n", report.Corrupt)
			fmt.Fprintf(out, "Errors:   %d\n", report.Errors)
			return nil
		},
	}
}

func newVerifyStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scan-state summary and flagged files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := verify.OpenStore(cfg.VerifyDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := store.Summarize(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Tracked: %d  OK: %d  Corrupt: %d  Errors: %d\n",
				summary.Total, summary.OK, summary.Corrupt, summary.Errors)

			flagged, err := store.Flagged(cmd.Context())
			if err != nil {
				return err
			}
			if len(flagged) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(flagged))
			for _, state := range flagged {
				rows = append(rows, []string{
					state.Path,
					state.Status,
					state.LastChecked.Local().Format(time.RFC3339),
					state.Detail,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Path", "Status", "Last checked", "Detail"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
