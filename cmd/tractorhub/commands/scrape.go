package commands

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/timmy/tractorhub/internal/discover"
	"github.com/timmy/tractorhub/internal/extract"
	"github.com/timmy/tractorhub/internal/service"
	"github.com/timmy/tractorhub/internal/source"
	"github.com/timmy/tractorhub/internal/source/staging"
	"github.com/timmy/tractorhub/internal/source/tractordata"
)

var (
	scrapeFlags *runnerFlags
	scrapeLinks bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--links] [--force | --retry-failed | --retry-null | --all] [--limit N] [--start N]",
	Short: "Discovers detail pages and extracts tractor records.",
	Long: "Discovers detail pages from the configured listings (or replays the links manifest with --links),\n" +
		"extracts one record per page and writes the extracted record set. Without flags the run resumes\n" +
		"from the checkpoint and only processes pages that have no result yet.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := current.cfg

		var src source.Source
		if scrapeLinks {
			src = staging.NewAdapter(current.fs.Fs(), current.env.Store.LinksPath())
		} else {
			d, err := discover.New(current.client, cfg.Discover)
			if err != nil {
				return err
			}
			src = tractordata.NewAdapter(d, cfg.Discover.ListingURLs)
		}

		bounds, err := extract.BoundsFromConfig(cfg.Extract.Bounds, time.Now())
		if err != nil {
			return err
		}
		extractor := extract.New(current.brands, bounds, nil)

		svc := service.NewScrapeService(current.env, current.client, extractor)
		_, err = svc.Run(cmd.Context(), src, scrapeFlags.options(cfg.Runner))
		return err
	},
}

func init() {
	scrapeFlags = addRunnerFlags(scrapeCmd)
	scrapeCmd.Flags().BoolVar(&scrapeLinks, "links", false, "Read the work list from the links manifest written by discover")
	rootCmd.AddCommand(scrapeCmd)
}
