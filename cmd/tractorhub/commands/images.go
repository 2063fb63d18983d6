package commands

import (
	"github.com/spf13/cobra"
	"github.com/timmy/tractorhub/internal/service"
)

var (
	imagesFlags      *runnerFlags
	enableGoogle     bool
	enableBrandSites bool
)

var imagesCmd = &cobra.Command{
	Use:   "images [--enable-google] [--enable-brand-sites] [--force | --retry-failed | --retry-null | --all]",
	Short: "Resolves a representative image for every catalog record.",
	Long: "Searches Wikimedia Commons, and optionally brand websites and a headless browser image search,\n" +
		"for each brand and model of the catalog. Enabling the browser backend forces a single worker.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := current.cfg
		svc := service.NewImagesService(current.env, cfg.Images, current.client, current.assets(cmd.Context()), cfg.HTTP.UserAgent)
		_, err := svc.Run(cmd.Context(), service.ImagesOptions{
			Runner:           imagesFlags.options(cfg.Runner),
			EnableBrowser:    enableGoogle,
			EnableBrandSites: enableBrandSites,
		})
		return err
	},
}

func init() {
	imagesFlags = addRunnerFlags(imagesCmd)
	imagesCmd.Flags().BoolVar(&enableGoogle, "enable-google", false, "Add the headless browser image search backend")
	imagesCmd.Flags().BoolVar(&enableBrandSites, "enable-brand-sites", false, "Add the brand website backend")
	rootCmd.AddCommand(imagesCmd)
}
