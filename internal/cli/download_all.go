package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"

	"romscrape/internal/app"
	"romscrape/internal/scraper"
)

func newDownloadAllCommand() *cobra.Command {
	var force bool
	var exclude []string
	var delayMS int

	cmd := &cobra.Command{
		Use:   "download-all",
		Short: "Scrape metadata for every system in the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			logutil.GetLogger(ctx).Info("starting full batch")

			env, err := loadEnv()
			if err != nil {
				return err
			}

			opts := scraper.BatchOptions{
				Force:   force,
				Exclude: exclude,
				Delay:   time.Duration(delayMS) * time.Millisecond,
			}
			var runner app.IRunner = app.NewDownloadAllCommand(env, opts)
			return runner.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-download cached entries")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Extra exclude patterns")
	cmd.Flags().IntVar(&delayMS, "delay", 0, "Pause between files in milliseconds (default 1000)")

	return cmd
}
