package runner

import "github.com/timmy/tractorhub/internal/checkpoint"

type selection struct {
	begin     int
	indices   []int
	skipped   int
	watermark *watermark
}

// selectItems applies the option rules to the work list.
func (r *Runner[I, T]) selectItems(state *checkpoint.State[T], items []I) selection {
	n := len(items)
	begin := 0
	if !r.opts.Force && !r.opts.All && !r.opts.retryMode() {
		begin = state.LastIndex
	}
	if r.opts.Start != nil {
		begin = *r.opts.Start
	}
	if begin < 0 {
		begin = 0
	}
	if begin > n {
		begin = n
	}

	sel := selection{begin: begin, watermark: newWatermark(begin, n)}
	for i := begin; i < n; i++ {
		key := r.key(items[i])
		take := false
		switch {
		case r.opts.Force:
			take = true
		case r.opts.retryMode():
			take = (r.opts.RetryFailed && state.IsFailed(key)) || (r.opts.RetryNull && state.IsNull(key))
		default:
			take = !state.Done(key)
		}

		if take && (r.opts.Limit <= 0 || len(sel.indices) < r.opts.Limit) {
			sel.indices = append(sel.indices, i)
			continue
		}
		if !take {
			sel.skipped++
			sel.watermark.complete(i)
		}
	}
	return sel
}

// watermark tracks the first position not yet completed, so the checkpoint
// never claims an item that is still in flight.
type watermark struct {
	done []bool
	base int
	mark int
}

func newWatermark(begin, n int) *watermark {
	return &watermark{done: make([]bool, n-begin), base: begin, mark: 0}
}

func (w *watermark) complete(idx int) {
	w.done[idx-w.base] = true
	for w.mark < len(w.done) && w.done[w.mark] {
		w.mark++
	}
}

func (w *watermark) value() int {
	return w.base + w.mark
}
