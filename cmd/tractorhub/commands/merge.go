package commands

import (
	"github.com/spf13/cobra"
	"github.com/timmy/tractorhub/internal/service"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merges curated and extracted records into the catalog.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := service.NewMergeService(current.env, current.brands).Run(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
