package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"romscrape/internal/app"
)

func newGetCommand() *cobra.Command {
	var systemID string
	var romFile string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print cached metadata for a ROM",
		RunE: func(cmd *cobra.Command, args []string) error {
			if systemID == "" || romFile == "" {
				return errors.New("get requires --system and --rom")
			}

			env, err := loadEnv()
			if err != nil {
				return err
			}

			var runner app.IRunner = app.NewGetCommand(env, systemID, romFile)
			return runner.Run(commandContext(cmd))
		},
	}

	cmd.Flags().StringVar(&systemID, "system", "", "Catalog system id")
	cmd.Flags().StringVar(&romFile, "rom", "", "ROM file name")

	return cmd
}
