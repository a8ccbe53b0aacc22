package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"

	"romscrape/internal/app"
)

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Restore the metadata cache from S3-compatible storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			logutil.GetLogger(ctx).Info("starting seed")

			env, err := loadEnv()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
			defer cancel()

			var runner app.IRunner = app.NewSeedCommand(env)
			return runner.Run(ctx)
		},
	}
}
