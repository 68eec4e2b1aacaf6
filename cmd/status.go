package cmd

import (
	"context"
	"fmt"

	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/output"
	"github.com/marcus/taskpad/internal/syncclient"
	"github.com/marcus/taskpad/internal/syncconfig"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show sync queue and connectivity status",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		return runStatus(jsonOut)
	},
}

// runStatus prints the sync status surface. Shared by `taskpad status` and
// `taskpad sync --status`.
func runStatus(jsonOut bool) error {
	database, err := db.Open(getBaseDir())
	if err != nil {
		output.Error("%v", err)
		return err
	}
	defer database.Close()

	pending, err := database.CountPendingItems()
	if err != nil {
		output.Error("%v", err)
		return err
	}
	deadLetters, err := database.CountDeadLetters()
	if err != nil {
		output.Error("%v", err)
		return err
	}
	needing, err := database.ListNeedingSync()
	if err != nil {
		output.Error("%v", err)
		return err
	}
	lastSynced, err := database.LastSyncedAt()
	if err != nil {
		output.Error("%v", err)
		return err
	}

	baseURL := syncconfig.GetBaseURL()
	online := syncclient.New(baseURL).Health(context.Background()) == nil

	if jsonOut {
		return output.JSON(map[string]any{
			"server":        baseURL,
			"online":        online,
			"pending_items": pending,
			"dead_letters":  deadLetters,
			"needing_sync":  len(needing),
			"last_synced":   lastSynced,
		})
	}

	if online {
		output.Success("Server: online (%s)", baseURL)
	} else {
		output.Warning("Server: offline (%s)", baseURL)
	}
	fmt.Printf("Pending intents: %d\n", pending)
	fmt.Printf("Tasks needing sync: %d\n", len(needing))
	fmt.Printf("Dead letters: %d\n", deadLetters)
	if lastSynced != nil {
		fmt.Printf("Last synced: %s\n", output.FormatRelativeTime(*lastSynced))
	} else {
		fmt.Println("Last synced: never")
	}

	for i := range needing {
		fmt.Println("  " + output.FormatTaskShort(&needing[i]))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().Bool("json", false, "Output as JSON")
}
