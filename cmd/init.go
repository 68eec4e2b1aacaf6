package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/output"
	"github.com/marcus/taskpad/internal/syncconfig"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize a taskpad store in the current directory",
	Long:    `Creates the local .taskpad directory and SQLite database.`,
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir := getBaseDir()

		if _, err := os.Stat(filepath.Join(baseDir, ".taskpad")); err == nil {
			output.Warning(".taskpad/ already exists")
			return nil
		}

		database, err := db.Initialize(baseDir)
		if err != nil {
			output.Error("failed to initialize database: %v", err)
			return err
		}
		defer database.Close()

		fmt.Println("INITIALIZED .taskpad/")

		// Establish the device identity up front so the first sync does not
		// have to create it.
		if id, err := syncconfig.GetDeviceID(); err == nil {
			fmt.Printf("Device: %s\n", id)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
