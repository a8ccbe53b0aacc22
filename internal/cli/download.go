package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"romscrape/internal/app"
)

func newDownloadCommand() *cobra.Command {
	var systemID string
	var romFile string
	var fallback bool
	var force bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Scrape metadata for a single ROM",
		RunE: func(cmd *cobra.Command, args []string) error {
			if systemID == "" || romFile == "" {
				return errors.New("download requires --system and --rom")
			}

			ctx := commandContext(cmd)
			logutil.GetLogger(ctx).Info("starting download",
				zap.String("system", systemID),
				zap.String("rom", romFile),
			)

			env, err := loadEnv()
			if err != nil {
				return err
			}

			var runner app.IRunner = app.NewDownloadCommand(env, systemID, romFile, fallback, force)
			return runner.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&systemID, "system", "", "Catalog system id")
	cmd.Flags().StringVar(&romFile, "rom", "", "ROM file name")
	cmd.Flags().BoolVar(&fallback, "fallback", false, "Try other providers when the default finds nothing")
	cmd.Flags().BoolVar(&force, "force", false, "Re-download even when cached")

	return cmd
}
