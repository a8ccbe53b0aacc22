package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"

	"romscrape/internal/app"
)

func newMirrorCommand() *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Upload the metadata cache to S3-compatible storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			logutil.GetLogger(ctx).Info("starting mirror")

			env, err := loadEnv()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
			defer cancel()

			var runner app.IRunner = app.NewMirrorCommand(env, purge)
			return runner.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Clear the bucket before uploading")

	return cmd
}
