package cmd

import (
	"fmt"

	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/models"
	"github.com/marcus/taskpad/internal/output"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:     "done [task-id...]",
	Aliases: []string{"complete"},
	Short:   "Mark tasks as completed",
	GroupID: "core",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		undo, _ := cmd.Flags().GetBool("undo")
		return setCompleted(args, !undo)
	},
}

var undoneCmd = &cobra.Command{
	Use:     "undone [task-id...]",
	Aliases: []string{"reopen"},
	Short:   "Mark tasks as not completed",
	GroupID: "core",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCompleted(args, false)
	},
}

func setCompleted(ids []string, completed bool) error {
	database, err := db.Open(getBaseDir())
	if err != nil {
		output.Error("%v", err)
		return err
	}
	defer database.Close()

	var lastErr error
	for _, id := range ids {
		taskID := db.NormalizeTaskID(id)
		task, err := database.UpdateTask(taskID, models.TaskPatch{Completed: &completed})
		if err != nil {
			output.Error("failed to update %s: %v", taskID, err)
			lastErr = err
			continue
		}
		if task == nil {
			output.Error("task not found: %s", taskID)
			lastErr = fmt.Errorf("task not found: %s", taskID)
			continue
		}
		if completed {
			fmt.Printf("DONE %s\n", task.ID)
		} else {
			fmt.Printf("REOPENED %s\n", task.ID)
		}
	}
	return lastErr
}

func init() {
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(undoneCmd)
	doneCmd.Flags().Bool("undo", false, "Mark as not completed instead")
}
