// Package runner drives a per-item job over a work list with bounded
// concurrency, checkpointing progress so an interrupted run can resume.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/timmy/tractorhub/internal/checkpoint"
	"github.com/timmy/tractorhub/internal/logger"
	"golang.org/x/sync/errgroup"
)

// ErrCheckpointIO is returned when the checkpoint cannot be read or written.
// It is the only error that aborts a run.
var ErrCheckpointIO = errors.New("checkpoint i/o failure")

// Phase is the lifecycle position of a run.
type Phase string

const (
	PhaseNotStarted   Phase = "not_started"
	PhaseRunning      Phase = "running"
	PhaseCheckpointed Phase = "checkpointed"
	PhaseDone         Phase = "done"
)

// ProcessFunc handles one item. A nil result with a nil error records a null
// result; a non-nil error records the item as failed.
type ProcessFunc[I, T any] func(ctx context.Context, item I) (*T, error)

// Runner processes items of type I into results of type T.
type Runner[I, T any] struct {
	name    string
	store   checkpoint.Store[T]
	key     func(I) string
	process ProcessFunc[I, T]
	opts    Options

	// Progress, when set, is called by the collector after every flush.
	Progress func(Stats)
	// Summary, when set, receives a table at the end of the run.
	Summary io.Writer

	now func() time.Time
}

// New creates a runner.
// Parameters:
//   - name: job name used in logs and the summary.
//   - store: checkpoint store owned by this runner for the duration of Run.
//   - key: stable key for an item; results are recorded under it.
//   - process: per-item work function.
//   - opts: selection and concurrency options; zero fields take defaults.
//
// Returns:
//   - *Runner: ready runner.
//   - error: non-nil if options cannot be resolved.
func New[I, T any](name string, store checkpoint.Store[T], key func(I) string, process ProcessFunc[I, T], opts Options) (*Runner[I, T], error) {
	resolved, err := opts.WithDefaults()
	if err != nil {
		return nil, err
	}
	return &Runner[I, T]{
		name:    name,
		store:   store,
		key:     key,
		process: process,
		opts:    resolved,
		now:     time.Now,
	}, nil
}

// Options returns the resolved options.
func (r *Runner[I, T]) Options() Options {
	return r.opts
}

type outcome[T any] struct {
	index  int
	key    string
	result *T
	err    error
}

// cursor hands out positions of the selected work list to workers.
type cursor struct {
	mu   sync.Mutex
	list []int
	pos  int
}

func (c *cursor) next() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pos >= len(c.list) {
		return 0, false
	}
	idx := c.list[c.pos]
	c.pos++
	return idx, true
}

// Run processes items and returns run statistics.
// Per-item errors and panics are recorded and never returned; the only
// returned errors wrap ErrCheckpointIO.
func (r *Runner[I, T]) Run(ctx context.Context, items []I) (*Stats, error) {
	ctx = logger.SetComponent(ctx, "runner:"+r.name)
	stats := &Stats{Job: r.name, Mode: r.opts.Mode(), Total: len(items), Phase: PhaseNotStarted, StartTime: r.now()}

	state, err := r.store.Load(ctx)
	if err != nil {
		return stats, fmt.Errorf("%w: %v", ErrCheckpointIO, err)
	}

	sel := r.selectItems(state, items)
	stats.Selected = len(sel.indices)
	stats.Skipped = sel.skipped
	stats.LastIndex = state.LastIndex

	logger.FromContext(ctx).WithFields(logger.Fields{
		"mode":        stats.Mode,
		"total":       len(items),
		"selected":    stats.Selected,
		"skipped":     stats.Skipped,
		"begin":       sel.begin,
		"concurrency": r.opts.Concurrency,
	}).Info("Starting job run")

	stats.Phase = PhaseRunning
	if len(sel.indices) == 0 {
		stats.Phase = PhaseDone
		stats.EndTime = r.now()
		r.finish(ctx, stats)
		return stats, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome[T], r.opts.Concurrency)
	cur := &cursor{list: sel.indices}
	g, gctx := errgroup.WithContext(runCtx)
	for w := 0; w < r.opts.Concurrency; w++ {
		g.Go(func() error {
			for {
				if gctx.Err() != nil {
					return nil
				}
				idx, ok := cur.next()
				if !ok {
					return nil
				}
				out := r.processOne(gctx, idx, items[idx])
				if gctx.Err() != nil {
					// interrupted items stay unrecorded and are picked up on resume
					return nil
				}
				select {
				case results <- out:
				case <-gctx.Done():
					return nil
				}
			}
		})
	}
	go func() {
		g.Wait()
		close(results)
	}()

	wm := sel.watermark
	// a run starting past the saved watermark leaves a gap before begin,
	// so it must not move lastIndex over unprocessed items
	advance := !r.opts.retryMode() && sel.begin <= state.LastIndex
	delta := checkpoint.NewState[T]()
	pending := 0

	flush := func() error {
		delta.LastIndex = state.LastIndex
		if advance && wm.value() > delta.LastIndex {
			delta.LastIndex = wm.value()
		}
		delta.UpdatedAt = r.now()
		merged, err := r.store.Merge(context.WithoutCancel(ctx), delta)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCheckpointIO, err)
		}
		state = merged
		delta = checkpoint.NewState[T]()
		pending = 0
		stats.Flushes++
		stats.LastIndex = merged.LastIndex
		stats.Phase = PhaseCheckpointed

		logger.With(logger.Fields{
			"processed": stats.Processed,
			"succeeded": stats.Succeeded,
			"null":      stats.Null,
			"failed":    stats.Failed,
			"remaining": stats.Selected - stats.Processed,
			"lastIndex": merged.LastIndex,
		}).Info(ctx, "Checkpoint saved")
		if r.Progress != nil {
			r.Progress(*stats)
		}
		return nil
	}

	var flushErr error
	for out := range results {
		if flushErr != nil {
			continue
		}
		r.record(ctx, stats, delta, out)
		wm.complete(out.index)
		pending++

		if pending >= r.opts.SaveEvery {
			if err := flush(); err != nil {
				flushErr = err
				cancel()
			}
		}
	}

	if flushErr == nil && pending > 0 {
		flushErr = flush()
	}
	stats.EndTime = r.now()
	if flushErr != nil {
		logger.FromContext(ctx).WithError(flushErr).Error("Aborting job run")
		return stats, flushErr
	}

	if stats.Processed == stats.Selected {
		stats.Phase = PhaseDone
	}
	r.finish(ctx, stats)
	return stats, nil
}

func (r *Runner[I, T]) record(ctx context.Context, stats *Stats, delta *checkpoint.State[T], out outcome[T]) {
	stats.Processed++
	switch {
	case out.err != nil:
		stats.Failed++
		delta.Record(out.key, nil, true)
		logger.FromContext(ctx).WithField(logger.FieldItemKey, out.key).WithError(out.err).Warn("Item failed")
	case out.result == nil:
		stats.Null++
		delta.Record(out.key, nil, false)
	default:
		stats.Succeeded++
		delta.Record(out.key, out.result, false)
	}
}

func (r *Runner[I, T]) processOne(ctx context.Context, idx int, item I) (out outcome[T]) {
	out.index = idx
	out.key = r.key(item)

	itemCtx, cancel := context.WithTimeout(logger.WithField(ctx, logger.FieldItemKey, out.key), r.opts.ItemTimeout)
	defer cancel()

	defer func() {
		if p := recover(); p != nil {
			out.result = nil
			out.err = fmt.Errorf("panic while processing %s: %v", out.key, p)
		}
	}()

	start := time.Now()
	out.result, out.err = r.process(itemCtx, item)
	logger.With(logger.Fields{}).WithDuration(time.Since(start).Milliseconds()).Debug(itemCtx, "Item processed")
	return out
}

func (r *Runner[I, T]) finish(ctx context.Context, stats *Stats) {
	logger.With(logger.Fields{
		"processed": stats.Processed,
		"succeeded": stats.Succeeded,
		"null":      stats.Null,
		"failed":    stats.Failed,
		"skipped":   stats.Skipped,
	}).WithDuration(stats.Duration().Milliseconds()).Info(ctx, "Job run completed")
	if r.Summary != nil {
		PrintSummary(r.Summary, stats)
	}
}
