package commands

import (
	"github.com/spf13/cobra"
	"github.com/timmy/tractorhub/internal/news"
	"github.com/timmy/tractorhub/internal/service"
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Fetches the configured feeds and refreshes the news document.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := current.cfg
		reader := news.NewFeedFetcher(current.client, cfg.News.ExcerptLength)
		_, err := service.NewNewsService(current.env, reader, cfg.News).Run(cmd.Context())
		return err
	},
}

func init() {
	rootCmd.AddCommand(newsCmd)
}
