package cmd

import (
	"fmt"

	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/models"
	"github.com/marcus/taskpad/internal/output"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		tasks, err := database.ListTasks()
		if err != nil {
			output.Error("failed to list tasks: %v", err)
			return err
		}

		if pendingOnly, _ := cmd.Flags().GetBool("pending"); pendingOnly {
			filtered := tasks[:0]
			for _, t := range tasks {
				if t.SyncStatus != models.SyncSynced {
					filtered = append(filtered, t)
				}
			}
			tasks = filtered
		}
		if openOnly, _ := cmd.Flags().GetBool("open"); openOnly {
			filtered := tasks[:0]
			for _, t := range tasks {
				if !t.Completed {
					filtered = append(filtered, t)
				}
			}
			tasks = filtered
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(tasks)
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks. Create one with 'taskpad create'.")
			return nil
		}
		for i := range tasks {
			fmt.Println(output.FormatTaskShort(&tasks[i]))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Bool("pending", false, "Only tasks not yet synced")
	listCmd.Flags().Bool("open", false, "Only tasks not yet completed")
	listCmd.Flags().Bool("json", false, "Output as JSON")
}
