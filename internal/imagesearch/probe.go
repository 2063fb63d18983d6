package imagesearch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	_ "golang.org/x/image/webp"
)

// Getter downloads a URL body.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// WidthProber reads image headers to learn the pixel width of candidates
// whose backend did not report dimensions. Results are cached.
type WidthProber struct {
	getter Getter
	cache  *expirable.LRU[string, int]
}

// NewWidthProber creates a prober with a bounded, expiring cache.
func NewWidthProber(getter Getter, size int, ttl time.Duration) *WidthProber {
	if size <= 0 {
		size = 512
	}
	return &WidthProber{
		getter: getter,
		cache:  expirable.NewLRU[string, int](size, nil, ttl),
	}
}

// Width returns the width in pixels of the image at url.
func (p *WidthProber) Width(ctx context.Context, url string) (int, error) {
	if w, ok := p.cache.Get(url); ok {
		return w, nil
	}
	body, err := p.getter.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("decode image header %s: %w", url, err)
	}
	p.cache.Add(url, cfg.Width)
	return cfg.Width, nil
}
