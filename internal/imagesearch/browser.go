package imagesearch

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/logger"
	"golang.org/x/sync/semaphore"
)

const collectImagesScript = `(() => {
	const out = [];
	for (const img of document.querySelectorAll('img')) {
		const src = img.currentSrc || img.src || '';
		if (!src.startsWith('http')) continue;
		const link = img.closest('a');
		out.push({
			url: src,
			title: (img.alt || '').trim(),
			description: link ? (link.getAttribute('aria-label') || link.title || '').trim() : '',
			width: img.naturalWidth || 0,
			height: img.naturalHeight || 0,
		});
	}
	return out;
})()`

type browserResult struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// BrowserSearcher drives one headless browser session against an image
// search page. The session is shared state, so calls are serialized and the
// backend is Exclusive.
type BrowserSearcher struct {
	cfg       config.BrowserConfig
	userAgent string
	sem       *semaphore.Weighted

	once         sync.Once
	startErr     error
	allocCancel  context.CancelFunc
	browserCtx   context.Context
	browserClose context.CancelFunc
}

// NewBrowserSearcher creates the backend. The browser starts on first use.
func NewBrowserSearcher(cfg config.BrowserConfig, userAgent string) *BrowserSearcher {
	if cfg.WaitTime <= 0 {
		cfg.WaitTime = 2 * time.Second
	}
	return &BrowserSearcher{
		cfg:       cfg,
		userAgent: userAgent,
		sem:       semaphore.NewWeighted(1),
	}
}

func (s *BrowserSearcher) Name() string {
	return "browser"
}

func (s *BrowserSearcher) Exclusive() bool {
	return true
}

func (s *BrowserSearcher) start() error {
	s.once.Do(func() {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", s.cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", s.cfg.NoSandbox),
			chromedp.UserAgent(s.userAgent),
		)
		if s.cfg.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(s.cfg.ExecPath))
		}

		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
		browserCtx, browserClose := chromedp.NewContext(allocCtx)
		if err := chromedp.Run(browserCtx); err != nil {
			browserClose()
			allocCancel()
			s.startErr = fmt.Errorf("start browser: %w", err)
			return
		}
		s.allocCancel = allocCancel
		s.browserCtx = browserCtx
		s.browserClose = browserClose
	})
	return s.startErr
}

// Search loads the search page for q and collects the rendered images.
func (s *BrowserSearcher) Search(ctx context.Context, q Query) ([]Candidate, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	if err := s.start(); err != nil {
		return nil, err
	}

	tab, cancelTab := chromedp.NewContext(s.browserCtx)
	defer cancelTab()
	tabCtx, cancel := context.WithTimeout(tab, 30*time.Second+s.cfg.WaitTime)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	pageURL := s.cfg.SearchURL + url.QueryEscape(q.Text)
	var raw []browserResult
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(s.cfg.WaitTime),
		chromedp.Evaluate(collectImagesScript, &raw),
	); err != nil {
		return nil, fmt.Errorf("browser search %q: %w", q.Text, err)
	}

	out := make([]Candidate, 0, len(raw))
	for _, r := range raw {
		out = append(out, Candidate{
			URL:         r.URL,
			Title:       r.Title,
			Description: r.Description,
			Width:       r.Width,
			Height:      r.Height,
			Source:      s.Name(),
		})
	}
	logger.With(logger.Fields{
		logger.FieldURL:   pageURL,
		logger.FieldCount: len(out),
	}).Debug(ctx, "Browser search collected images")
	return out, nil
}

// Close shuts the browser down.
func (s *BrowserSearcher) Close() {
	if s.browserClose != nil {
		s.browserClose()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}
