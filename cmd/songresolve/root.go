package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"songresolve/internal/config"
	"songresolve/internal/logger"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "songresolve",
	Short: "Find playable sources for a song",
	Long: `songresolve matches a song query against the local music collection and
online catalogues, and ranks the candidates by how closely they match.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug output")
}

// loadConfig reads the config file. Priority: CLI flags > config file > defaults
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func newLogger(cfg config.Config) *logger.Logger {
	log := logger.New(cfg.Verbose)
	if cfg.LogFile != "" {
		if err := log.SetFileLog(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
		} else {
			log.Debug("Logging to file: %s", cfg.LogFile)
		}
	}
	return log
}
