package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/output"
	"github.com/marcus/taskpad/internal/syncclient"
	"github.com/marcus/taskpad/internal/syncconfig"
	"github.com/marcus/taskpad/internal/tui/monitor"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live TUI dashboard for sync health",
	Long: `Launch a live-updating dashboard showing server connectivity,
the pending intent queue, tasks waiting to sync, and the dead-letter
queue. Refreshes every few seconds.

Key bindings:
  r   Force refresh
  q   Quit`,
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := db.Open(getBaseDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer database.Close()

		client := syncclient.New(syncconfig.GetBaseURL())
		model := monitor.New(database, client)

		p := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running monitor: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
