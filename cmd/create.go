package cmd

import (
	"fmt"
	"strings"

	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/models"
	"github.com/marcus/taskpad/internal/output"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:     "create [title]",
	Aliases: []string{"add", "new"},
	Short:   "Create a new task",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		database, err := db.Open(baseDir)
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		title := strings.TrimSpace(strings.Join(args, " "))
		if title == "" {
			output.Error("title is required")
			return fmt.Errorf("title is required")
		}

		description, _ := cmd.Flags().GetString("description")

		task := &models.Task{
			Title:       title,
			Description: description,
		}
		if err := database.CreateTask(task); err != nil {
			output.Error("failed to create task: %v", err)
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(task)
		}
		fmt.Printf("CREATED %s\n", task.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().StringP("description", "d", "", "Task description")
	createCmd.Flags().Bool("json", false, "Output the created task as JSON")
}
