package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "romscrape",
	Short: "Scrape and cache game metadata for ROM collections",
}

var configPath string

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Error("exec cmd failed", zap.Error(err))
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(
		newGetCommand(),
		newCheckCommand(),
		newDownloadCommand(),
		newDownloadSystemCommand(),
		newDownloadAllCommand(),
		newHistoryCommand(),
		newMirrorCommand(),
		newSeedCommand(),
	)
}
