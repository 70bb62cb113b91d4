package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shuttle/internal/api"
	"shuttle/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the operation queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := ctx.client().QueueList()
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.QueueListResponse{Items: items})
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					item.ID,
					item.Subject.Title,
					item.Operation,
					item.Status,
					item.Progress,
					item.AddedAt.Local().Format(time.RFC3339),
				})
			}
			out := renderTable(
				[]string{"ID", "Title", "Operation", "Status", "Progress", "Added"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var subjectID int64
	var title string
	var path string

	cmd := &cobra.Command{
		Use:   "add <copy|convert>",
		Short: "Queue a copy or convert operation for a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operation, ok := queue.ParseOperationType(args[0])
			if !ok {
				return fmt.Errorf("unknown operation %q (expected copy or convert)", args[0])
			}
			if strings.TrimSpace(path) == "" {
				return fmt.Errorf("--path is required")
			}
			item, err := ctx.client().Enqueue(api.EnqueueRequest{
				Subject: api.Subject{
					ID:    subjectID,
					Title: title,
					Path:  path,
				},
				Operation: string(operation),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s of %s (%s)\n", item.Operation, item.Subject.Title, item.ID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&subjectID, "id", 0, "Catalog identifier of the subject")
	cmd.Flags().StringVar(&title, "title", "", "Display title of the subject")
	cmd.Flags().StringVar(&path, "path", "", "Current file location of the subject")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <item-id>",
		Short: "Remove a pending item from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every item from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := ctx.client().Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s)\n", removed)
			return nil
		},
	}
}
