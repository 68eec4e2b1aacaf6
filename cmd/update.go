package cmd

import (
	"fmt"

	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/models"
	"github.com/marcus/taskpad/internal/output"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:     "update [task-id]",
	Aliases: []string{"edit"},
	Short:   "Update a task's title or description",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		database, err := db.Open(baseDir)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		var patch models.TaskPatch
		if cmd.Flags().Changed("title") {
			v, _ := cmd.Flags().GetString("title")
			patch.Title = &v
		}
		if cmd.Flags().Changed("description") {
			v, _ := cmd.Flags().GetString("description")
			patch.Description = &v
		}
		if patch.Title == nil && patch.Description == nil {
			output.Error("nothing to update: pass --title or --description")
			return fmt.Errorf("nothing to update")
		}

		taskID := db.NormalizeTaskID(args[0])
		task, err := database.UpdateTask(taskID, patch)
		if err != nil {
			output.Error("failed to update %s: %v", taskID, err)
			return err
		}
		if task == nil {
			output.Error("task not found: %s", taskID)
			return fmt.Errorf("task not found: %s", taskID)
		}

		fmt.Printf("UPDATED %s\n", task.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringP("title", "t", "", "New title")
	updateCmd.Flags().StringP("description", "d", "", "New description")
}
