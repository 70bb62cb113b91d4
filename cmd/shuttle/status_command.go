package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and readiness checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status()
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintf(out, "Daemon:      running (pid %d)\n", status.PID)
			fmt.Fprintf(out, "Queue file:  %s\n", status.QueueFilePath)
			fmt.Fprintf(out, "Lock file:   %s\n", status.LockFilePath)
			fmt.Fprintf(out, "Queue depth: %d\n", status.QueueLength)
			if status.Active != nil {
				fmt.Fprintf(out, "Active:      %s %s (%s) %s\n",
					status.Active.Operation, status.Active.Subject.Title,
					status.Active.Status, status.Active.Progress)
			} else {
				fmt.Fprintln(out, "Active:      idle")
			}

			if len(status.Preflight) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Readiness checks:")
				for _, check := range status.Preflight {
					label := "OK"
					color := ansiGreen
					switch {
					case !check.Passed && check.Optional:
						label = "WARN"
						color = ansiYellow
					case !check.Passed:
						label = "FAIL"
						color = ansiRed
					}
					if colorize {
						label = color + label + ansiReset
					}
					fmt.Fprintf(out, "  [%s] %-16s %s\n", label, check.Name, check.Detail)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")
	return cmd
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
