package commands

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/timmy/tractorhub/internal/pricing"
	"github.com/timmy/tractorhub/internal/service"
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Estimates a price band for catalog records without one.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := service.NewPricesService(current.env, pricing.NewEstimator(time.Now)).Run(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(pricesCmd)
}
