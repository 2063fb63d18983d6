package fetch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out requests toward remote sources: a minimum interval
// between requests, a random extra delay up to MaxDelay and a longer pause
// every PauseEvery requests. It is cooperative, not adaptive.
type Pacer struct {
	limiter    *rate.Limiter
	jitter     time.Duration
	pauseEvery int
	pause      time.Duration

	mu    sync.Mutex
	count int
	rnd   *rand.Rand

	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer creates a pacer. A zero MinDelay disables the interval limit.
func NewPacer(minDelay, maxDelay time.Duration, pauseEvery int, pause time.Duration) *Pacer {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	jitter := maxDelay - minDelay
	if jitter < 0 {
		jitter = 0
	}
	return &Pacer{
		limiter:    rate.NewLimiter(limit, 1),
		jitter:     jitter,
		pauseEvery: pauseEvery,
		pause:      pause,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      sleepCtx,
	}
}

// Wait blocks until the next request may be sent.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	p.mu.Lock()
	p.count++
	var delay time.Duration
	if p.jitter > 0 {
		delay = time.Duration(p.rnd.Int63n(int64(p.jitter) + 1))
	}
	if p.pauseEvery > 0 && p.count%p.pauseEvery == 0 {
		delay += p.pause
	}
	p.mu.Unlock()

	if delay <= 0 {
		return nil
	}
	return p.sleep(ctx, delay)
}

// Count returns how many requests have passed the pacer.
func (p *Pacer) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
