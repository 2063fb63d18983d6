// Package fetch retrieves remote pages with a descriptive client identifier,
// request pacing and retries on transient statuses.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/logger"
)

// ErrUnexpectedStatus is returned for any non-2xx response that survives
// retries.
var ErrUnexpectedStatus = errors.New("unexpected http status")

// Client fetches pages. It is safe for concurrent use; all requests share
// one Pacer.
type Client struct {
	http  *resty.Client
	pacer *Pacer
}

// NewClient creates a client from the http configuration section.
// Parameters:
//   - cfg: user agent, timeout, retry and pacing settings.
//
// Returns:
//   - *Client: configured client.
func NewClient(cfg config.HTTPConfig) *Client {
	pacer := NewPacer(cfg.MinDelay, cfg.MaxDelay, cfg.PauseEvery, cfg.PauseDuration)

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Accept-Language", "en-US,en;q=0.8")
	client.SetRetryCount(cfg.MaxRetries)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.SetRetryMaxWaitTime(10 * time.Second)
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil {
			return !errors.Is(err, context.Canceled)
		}
		return Retryable(r.StatusCode())
	})
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return pacer.Wait(req.Context())
	})

	return &Client{http: client, pacer: pacer}
}

// Retryable reports whether status is worth another attempt.
func Retryable(status int) bool {
	return status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500
}

// Resty exposes the underlying client for JSON APIs.
func (c *Client) Resty() *resty.Client {
	return c.http
}

// Pacer returns the shared pacer.
func (c *Client) Pacer() *Pacer {
	return c.pacer
}

// Get fetches url and returns the body of a 2xx response.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}

	logger.With(logger.Fields{
		logger.FieldURL:    url,
		logger.FieldStatus: resp.StatusCode(),
		logger.FieldSize:   len(resp.Body()),
	}).WithDuration(time.Since(start).Milliseconds()).Debug(ctx, "Fetched")

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %d from %s", ErrUnexpectedStatus, resp.StatusCode(), url)
	}
	return resp.Body(), nil
}

// Document fetches url and parses it as HTML.
func (c *Client) Document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}
