package cmd

import (
	"fmt"
	"strconv"

	"github.com/marcus/taskpad/internal/output"
	"github.com/marcus/taskpad/internal/syncconfig"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Show or change sync configuration",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Server URL: %s\n", syncconfig.GetBaseURL())
		fmt.Printf("Batch size: %d\n", syncconfig.GetBatchSize())
		fmt.Printf("Max retries: %d\n", syncconfig.GetMaxRetries())
		if id, err := syncconfig.GetDeviceID(); err == nil {
			fmt.Printf("Device ID: %s\n", id)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a config value (server-url, batch-size, max-retries)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := syncconfig.LoadConfig()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		key, value := args[0], args[1]
		switch key {
		case "server-url":
			cfg.API.BaseURL = value
		case "batch-size":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				output.Error("batch-size must be a positive integer")
				return fmt.Errorf("invalid batch-size: %s", value)
			}
			cfg.Sync.BatchSize = &n
		case "max-retries":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				output.Error("max-retries must be a positive integer")
				return fmt.Errorf("invalid max-retries: %s", value)
			}
			cfg.Sync.MaxRetries = &n
		default:
			output.Error("unknown key: %s (valid: server-url, batch-size, max-retries)", key)
			return fmt.Errorf("unknown key: %s", key)
		}

		if err := syncconfig.SaveConfig(cfg); err != nil {
			output.Error("failed to save config: %v", err)
			return err
		}
		output.Success("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
}
