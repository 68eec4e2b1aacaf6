package cmd

import (
	"fmt"

	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/output"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show [task-id]",
	Aliases: []string{"view"},
	Short:   "Show a task in full detail",
	GroupID: "core",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		taskID := db.NormalizeTaskID(args[0])
		task, err := database.GetTask(taskID)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if task == nil {
			output.Error("task not found: %s", taskID)
			return fmt.Errorf("task not found: %s", taskID)
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(task)
		}

		fmt.Print(output.FormatTaskLong(task))
		if task.Description != "" {
			rendered, err := output.RenderMarkdown(task.Description)
			if err != nil {
				// Unstyled text is better than no description.
				fmt.Println(task.Description)
			} else {
				fmt.Println(rendered)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("json", false, "Output as JSON")
}
