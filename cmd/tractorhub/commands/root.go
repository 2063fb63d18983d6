// Package commands implements the tractorhub CLI, one subcommand per job.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/logger"
)

var (
	configPath string
	verbose    bool

	// current is built by the root pre-run hook for the running subcommand.
	current *app
)

// errConfig marks failures that happen before any work starts.
var errConfig = errors.New("configuration error")

var rootCmd = &cobra.Command{
	Use:           "tractorhub",
	Short:         "tractorhub runs the tractor catalog acquisition and enrichment jobs.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("%w: %v", errConfig, err)
		}

		log := logger.New(cfg.ToLoggerConfig("tractorhub-" + cmd.Name()))
		log.SetVerbose(verbose)
		logger.SetDefaultLogger(log)

		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return fmt.Errorf("%w: %v", errConfig, err)
		}
		current = a
		cmd.SetContext(log.WithContext(cmd.Context()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// ExecuteContext runs the CLI and returns the process exit code. Jobs only
// return errors for configuration, work-list and persistence failures;
// per-item failures are recorded in the checkpoint and exit 0.
func ExecuteContext(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	defer logger.Sync()
	if current != nil {
		defer current.Close()
	}
	if err == nil {
		return 0
	}

	if errors.Is(err, errConfig) || current == nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger.FromContext(ctx).WithError(err).Error("Job aborted")
	return 1
}
