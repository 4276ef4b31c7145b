package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"songresolve/internal/collection"
	"songresolve/internal/progress"
	"songresolve/internal/source"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Index the configured collection directories",
	Args:  cobra.NoArgs,
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	defer log.Close()

	ix := collection.NewIndex(source.NewLocal("My Collection"), log, nil)
	defer ix.Close()

	bar := progress.New(os.Stdout, "Scanning")
	stats, err := ix.ScanProgress(cmd.Context(), cfg.CollectionDirs, bar.Set)
	bar.Finish()
	if err != nil {
		return err
	}

	fmt.Printf("Scanned %d directories: %d audio files, %d indexed, %d skipped\n",
		len(cfg.CollectionDirs), stats.Files, stats.Indexed, stats.Skipped)
	return nil
}
