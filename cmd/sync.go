package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/output"
	tdsync "github.com/marcus/taskpad/internal/sync"
	"github.com/marcus/taskpad/internal/syncclient"
	"github.com/marcus/taskpad/internal/syncconfig"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Upload pending changes to the sync server",
	Long: `Drains the local sync-intent queue: probes the server, groups
pending intents by task, and uploads them in checksummed batches.
Items that keep failing are moved to the dead-letter queue after
the retry budget is exhausted.`,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		if statusOnly, _ := cmd.Flags().GetBool("status"); statusOnly {
			return runStatus(jsonOut)
		}

		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		client := syncclient.New(syncconfig.GetBaseURL())
		engine := tdsync.NewEngine(database, client, tdsync.Config{
			BatchSize:  syncconfig.GetBatchSize(),
			MaxRetries: syncconfig.GetMaxRetries(),
		})

		result, err := engine.RunCycle(cmd.Context())
		if err != nil {
			if errors.Is(err, tdsync.ErrCycleInProgress) {
				output.Warning("a sync cycle is already running")
				return nil
			}
			output.Error("%v", err)
			return err
		}

		if jsonOut {
			return output.JSON(result)
		}
		printSyncResult(result)
		if !result.Success {
			return fmt.Errorf("sync finished with errors")
		}
		return nil
	},
}

func printSyncResult(result *tdsync.SyncResult) {
	if result.Success && result.SyncedItems == 0 && result.FailedItems == 0 {
		output.Info("Nothing to sync.")
		return
	}
	if result.SyncedItems > 0 {
		output.Success("Synced %d item(s)", result.SyncedItems)
	}
	if result.FailedItems > 0 {
		output.Warning("%d item(s) failed", result.FailedItems)
	}
	for _, e := range result.Errors {
		output.Error("%s: %s", e.TaskID, e.Error)
	}
}

var pingCmd = &cobra.Command{
	Use:     "ping",
	Short:   "Check connectivity to the sync server",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseURL := syncconfig.GetBaseURL()
		client := syncclient.New(baseURL)
		if err := client.Health(context.Background()); err != nil {
			output.Error("server unreachable at %s: %v", baseURL, err)
			return err
		}
		output.Success("Server reachable at %s", baseURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(pingCmd)
	syncCmd.Flags().Bool("json", false, "Output the sync result as JSON")
	syncCmd.Flags().Bool("status", false, "Print queue and connectivity status instead of syncing")
}
