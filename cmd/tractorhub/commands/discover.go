package commands

import (
	"github.com/spf13/cobra"
	"github.com/timmy/tractorhub/internal/discover"
	"github.com/timmy/tractorhub/internal/service"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Writes the links manifest for the configured listing pages.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := current.cfg
		d, err := discover.New(current.client, cfg.Discover)
		if err != nil {
			return err
		}
		_, err = service.NewDiscoverService(current.env, d, cfg.Discover.ListingURLs).Run(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
