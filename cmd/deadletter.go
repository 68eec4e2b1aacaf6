package cmd

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/output"
	"github.com/spf13/cobra"
)

var deadletterCmd = &cobra.Command{
	Use:     "deadletter",
	Aliases: []string{"dlq"},
	Short:   "Inspect intents whose retries were exhausted",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		letters, err := database.ListDeadLetters()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
			return output.JSON(letters)
		}

		if len(letters) == 0 {
			fmt.Println("Dead-letter queue is empty.")
			return nil
		}
		for _, dl := range letters {
			fmt.Printf("%s  %s %s (%d retries)\n  %s\n",
				dl.FailedAt.Local().Format("2006-01-02 15:04"),
				dl.TaskID, dl.Operation, dl.RetryCount, dl.FinalErrorMessage)
		}
		return nil
	},
}

var deadletterPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Permanently delete all dead-lettered intents",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		count, err := database.CountDeadLetters()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		if count == 0 {
			fmt.Println("Dead-letter queue is empty.")
			return nil
		}

		if force, _ := cmd.Flags().GetBool("force"); !force {
			var confirmed bool
			prompt := huh.NewConfirm().
				Title(fmt.Sprintf("Permanently delete %d dead-lettered intent(s)?", count)).
				Value(&confirmed)
			if err := prompt.Run(); err != nil {
				return err
			}
			if !confirmed {
				fmt.Println("Aborted.")
				return nil
			}
		}

		purged, err := database.PurgeDeadLetters()
		if err != nil {
			output.Error("failed to purge: %v", err)
			return err
		}
		output.Success("Purged %d dead letter(s)", purged)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deadletterCmd)
	deadletterCmd.AddCommand(deadletterPurgeCmd)
	deadletterCmd.Flags().Bool("json", false, "Output as JSON")
	deadletterPurgeCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
}
