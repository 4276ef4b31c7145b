package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"songresolve/internal/config"
)

var initForce bool

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a default config file",
	Long:  "Writes the default configuration to --config, or to ~/.config/songresolve/config.yaml",
	Args:  cobra.NoArgs,
	RunE:  runInitConfig,
}

func init() {
	initConfigCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initConfigCmd)
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Printf("Config file already exists: %s\n", path)
		fmt.Println("Run 'songresolve init-config --force' to overwrite it.")
		return nil
	}

	if err := config.SaveConfigFile(config.DefaultConfig(), path); err != nil {
		return err
	}
	fmt.Printf("Config file created: %s\n", path)
	return nil
}
