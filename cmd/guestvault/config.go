package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/guestvault/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		if shown.Vault.SecretKey != "" {
			shown.Vault.SecretKey = "<set>"
		}
		if shown.Remote.DSN != "" {
			shown.Remote.DSN = "<set>"
		}
		printJSON(shown)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write a config file with default values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); err == nil && !configForce {
			return reportError("%s already exists (use --force to overwrite)", path)
		}
		if err := config.SaveExample(path); err != nil {
			return reportError("Write config: %v", err)
		}
		if jsonOutput {
			printJSON(map[string]interface{}{"success": true, "path": path})
			return nil
		}
		printSuccess("Wrote %s", path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
