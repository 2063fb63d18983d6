package imagesearch

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/tractorhub/internal/brand"
	"github.com/timmy/tractorhub/internal/logger"
)

// ErrAllBackendsFailed is returned when every search call for a record
// failed, as opposed to succeeding with no acceptable candidate.
var ErrAllBackendsFailed = errors.New("all image search backends failed")

// ResolverOptions configures candidate filtering.
type ResolverOptions struct {
	Assets          *brand.Assets
	AllowedLicenses []string
	MinWidth        int
	Prober          *WidthProber
}

// Resolver tries query variants across backends until one yields an
// acceptable candidate.
type Resolver struct {
	searchers []Searcher
	opts      ResolverOptions
}

// NewResolver creates a resolver over searchers, tried in order for every
// query variant.
func NewResolver(searchers []Searcher, opts ResolverOptions) *Resolver {
	return &Resolver{searchers: searchers, opts: opts}
}

// Exclusive reports whether any backend forbids concurrent use, in which
// case the caller must run with a single worker.
func (r *Resolver) Exclusive() bool {
	for _, s := range r.searchers {
		if s.Exclusive() {
			return true
		}
	}
	return false
}

// Backends returns the configured backend names.
func (r *Resolver) Backends() []string {
	names := make([]string, len(r.searchers))
	for i, s := range r.searchers {
		names[i] = s.Name()
	}
	return names
}

// Resolve returns the best image URL for brand and model, or nil when no
// candidate is acceptable.
// Parameters:
//   - ctx: request context.
//   - brandName: canonical brand.
//   - model: model designation.
//
// Returns:
//   - *string: accepted URL or nil.
//   - error: ErrAllBackendsFailed when no search call succeeded.
func (r *Resolver) Resolve(ctx context.Context, brandName, model string) (*string, error) {
	var (
		calls    int
		failures int
		lastErr  error
	)

	for _, q := range Queries(brandName, model) {
		for _, s := range r.searchers {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			calls++
			candidates, err := s.Search(ctx, q)
			if err != nil {
				failures++
				lastErr = err
				logger.FromContext(ctx).WithError(err).WithField("backend", s.Name()).
					Warnf("Image search failed for %q", q.Text)
				continue
			}

			if c, ok := r.pick(ctx, r.filter(candidates), brandName, model); ok {
				logger.With(logger.Fields{
					logger.FieldURL: c.URL,
					"backend":       s.Name(),
					"score":         c.Score,
					"query_variant": q.Variant,
				}).Debug(ctx, "Image resolved for %s %s", brandName, model)
				url := c.URL
				return &url, nil
			}
		}
	}

	if calls > 0 && failures == calls {
		return nil, fmt.Errorf("%w: %v", ErrAllBackendsFailed, lastErr)
	}
	return nil, nil
}

// filter converts thumbnails and drops unlicensed or logo candidates.
func (r *Resolver) filter(candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		full, ok := FullResolution(c.URL)
		if !ok {
			continue
		}
		c.URL = full
		if !LicenseAllowed(c.License, r.opts.AllowedLicenses) {
			continue
		}
		if r.opts.Assets.IsLogo(c.URL) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (r *Resolver) pick(ctx context.Context, candidates []Candidate, brandName, model string) (Scored, bool) {
	for _, c := range Rank(candidates, brandName, model) {
		if c.Score < 0 {
			break
		}
		if r.wideEnough(ctx, c.Candidate) {
			return c, true
		}
	}
	return Scored{}, false
}

func (r *Resolver) wideEnough(ctx context.Context, c Candidate) bool {
	if r.opts.MinWidth <= 0 {
		return true
	}
	width := c.Width
	if width == 0 {
		if r.opts.Prober == nil {
			return true
		}
		w, err := r.opts.Prober.Width(ctx, c.URL)
		if err != nil {
			logger.CtxDebug(ctx, "Width probe failed for %s: %v", c.URL, err)
			return false
		}
		width = w
	}
	return width >= r.opts.MinWidth
}
