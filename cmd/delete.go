package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/output"
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [task-id...]",
	Aliases: []string{"rm"},
	Short:   "Soft-delete one or more tasks",
	Long: `Marks tasks as deleted locally and queues a delete intent so the
removal propagates to the server on the next sync.`,
	GroupID: "core",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			var confirmed bool
			prompt := huh.NewConfirm().
				Title(fmt.Sprintf("Delete %d task(s)?", len(args))).
				Value(&confirmed)
			if err := prompt.Run(); err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return nil
			}
		}

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		var lastErr error
		for _, id := range args {
			taskID := db.NormalizeTaskID(id)
			deleted, err := database.DeleteTask(taskID)
			if err != nil {
				output.Error("failed to delete %s: %v", taskID, err)
				lastErr = err
				continue
			}
			if !deleted {
				output.Error("task not found: %s", taskID)
				lastErr = fmt.Errorf("task not found: %s", taskID)
				continue
			}
			fmt.Printf("DELETED %s\n", taskID)
		}
		return lastErr
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
}
