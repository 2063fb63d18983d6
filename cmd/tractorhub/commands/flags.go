package commands

import (
	"github.com/spf13/cobra"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/runner"
)

// runnerFlags are the selection flags shared by resumable jobs.
type runnerFlags struct {
	force       bool
	retryFailed bool
	retryNull   bool
	all         bool
	limit       int
	start       int
	concurrency int
	saveEvery   int
}

func addRunnerFlags(cmd *cobra.Command) *runnerFlags {
	f := &runnerFlags{}
	flags := cmd.Flags()
	flags.BoolVar(&f.force, "force", false, "Reprocess every item, ignoring recorded results")
	flags.BoolVar(&f.retryFailed, "retry-failed", false, "Process only items that failed in earlier runs")
	flags.BoolVar(&f.retryNull, "retry-null", false, "Process only items recorded without a result")
	flags.BoolVar(&f.all, "all", false, "Scan the whole work list instead of resuming at the checkpoint")
	flags.IntVar(&f.limit, "limit", 0, "Process at most N items (0 = no limit)")
	flags.IntVar(&f.start, "start", -1, "Start scanning at index N")
	flags.IntVar(&f.concurrency, "concurrency", 0, "Number of workers (default from config)")
	flags.IntVar(&f.saveEvery, "save-every", 0, "Flush the checkpoint every N completions (default from config)")
	return f
}

// options resolves the flags against the runner configuration section.
func (f *runnerFlags) options(cfg config.RunnerConfig) runner.Options {
	opts := runner.Options{
		Force:       f.force,
		RetryFailed: f.retryFailed,
		RetryNull:   f.retryNull,
		All:         f.all,
		Limit:       f.limit,
		Concurrency: cfg.Concurrency,
		SaveEvery:   cfg.SaveEvery,
		ItemTimeout: cfg.ItemTimeout,
	}
	if f.start >= 0 {
		start := f.start
		opts.Start = &start
	}
	if f.concurrency > 0 {
		opts.Concurrency = f.concurrency
	}
	if f.saveEvery > 0 {
		opts.SaveEvery = f.saveEvery
	}
	return opts
}
