package runner

import (
	"fmt"
	"time"

	"dario.cat/mergo"
)

// Options selects which items a run processes and how.
type Options struct {
	// Force reprocesses every item from Start (default 0).
	Force bool
	// RetryFailed processes only keys in the failed set.
	RetryFailed bool
	// RetryNull processes only keys whose recorded result is null.
	RetryNull bool
	// All scans from the beginning instead of the checkpoint position.
	All bool

	// Limit caps the number of processed items; 0 means no cap.
	Limit int
	// Start overrides the scan position when non-nil.
	Start *int

	Concurrency int
	SaveEvery   int
	ItemTimeout time.Duration
}

// DefaultOptions returns the settings used for unset fields.
func DefaultOptions() Options {
	return Options{
		Concurrency: 4,
		SaveEvery:   10,
		ItemTimeout: 90 * time.Second,
	}
}

// WithDefaults fills zero fields of o from DefaultOptions.
func (o Options) WithDefaults() (Options, error) {
	if err := mergo.Merge(&o, DefaultOptions()); err != nil {
		return o, fmt.Errorf("merge runner options: %w", err)
	}
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.SaveEvery < 1 {
		o.SaveEvery = 1
	}
	return o, nil
}

func (o Options) retryMode() bool {
	return o.RetryFailed || o.RetryNull
}

// Mode names the selection rule in effect, for logs and run history.
func (o Options) Mode() string {
	switch {
	case o.Force:
		return "force"
	case o.RetryFailed && o.RetryNull:
		return "retry-failed+null"
	case o.RetryFailed:
		return "retry-failed"
	case o.RetryNull:
		return "retry-null"
	case o.All:
		return "all"
	}
	return "resume"
}

// String renders the options for the run history table.
func (o Options) String() string {
	start := "-"
	if o.Start != nil {
		start = fmt.Sprint(*o.Start)
	}
	return fmt.Sprintf("mode=%s limit=%d start=%s concurrency=%d save_every=%d",
		o.Mode(), o.Limit, start, o.Concurrency, o.SaveEvery)
}
