package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"romscrape/internal/app"
	"romscrape/internal/scraper"
)

func newDownloadSystemCommand() *cobra.Command {
	var systemID string
	var force bool
	var exclude []string
	var delayMS int

	cmd := &cobra.Command{
		Use:   "download-system",
		Short: "Scrape metadata for every ROM of one system",
		RunE: func(cmd *cobra.Command, args []string) error {
			if systemID == "" {
				return errors.New("download-system requires --system")
			}

			ctx := commandContext(cmd)
			logutil.GetLogger(ctx).Info("starting system batch",
				zap.String("system", systemID),
			)

			env, err := loadEnv()
			if err != nil {
				return err
			}

			opts := scraper.BatchOptions{
				Force:   force,
				Exclude: exclude,
				Delay:   time.Duration(delayMS) * time.Millisecond,
			}
			var runner app.IRunner = app.NewDownloadSystemCommand(env, systemID, opts)
			return runner.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&systemID, "system", "", "Catalog system id")
	cmd.Flags().BoolVar(&force, "force", false, "Re-download cached entries")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Extra exclude patterns")
	cmd.Flags().IntVar(&delayMS, "delay", 0, "Pause between files in milliseconds (default 1000)")

	return cmd
}
