package cli

import (
	"github.com/spf13/cobra"

	"romscrape/internal/app"
)

func newHistoryCommand() *cobra.Command {
	var systemID string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scrape runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}

			var runner app.IRunner = app.NewHistoryCommand(env, systemID, limit)
			return runner.Run(commandContext(cmd))
		},
	}

	cmd.Flags().StringVar(&systemID, "system", "", "Only list runs for this system")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")

	return cmd
}
