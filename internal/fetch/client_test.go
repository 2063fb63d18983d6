package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/timmy/tractorhub/internal/config"
)

func testConfig() config.HTTPConfig {
	return config.HTTPConfig{
		UserAgent:  "tractorhub-test/1.0",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
	}
}

func TestClientGet(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/ok":
			if got := r.Header.Get("User-Agent"); got != "tractorhub-test/1.0" {
				t.Errorf("User-Agent = %q", got)
			}
			_, _ = w.Write([]byte("<html><h1>ok</h1></html>"))
		case "/missing":
			http.NotFound(w, r)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	client := NewClient(testConfig())
	client.Resty().SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(time.Millisecond)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		doc, err := client.Document(ctx, srv.URL+"/ok")
		if err != nil {
			t.Fatalf("Document() error = %v", err)
		}
		if got := doc.Find("h1").Text(); got != "ok" {
			t.Errorf("h1 = %q, want ok", got)
		}
	})

	t.Run("not found is not retried", func(t *testing.T) {
		atomic.StoreInt32(&hits, 0)
		_, err := client.Get(ctx, srv.URL+"/missing")
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Fatalf("Get() error = %v, want ErrUnexpectedStatus", err)
		}
		if got := atomic.LoadInt32(&hits); got != 1 {
			t.Errorf("hits = %d, want 1", got)
		}
	})

	t.Run("server error is retried", func(t *testing.T) {
		atomic.StoreInt32(&hits, 0)
		_, err := client.Get(ctx, srv.URL+"/broken")
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Fatalf("Get() error = %v, want ErrUnexpectedStatus", err)
		}
		if got := atomic.LoadInt32(&hits); got != 3 {
			t.Errorf("hits = %d, want 3", got)
		}
	})
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{200, false},
		{404, false},
		{408, true},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		if got := Retryable(tt.status); got != tt.want {
			t.Errorf("Retryable(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestPacerPausesEveryN(t *testing.T) {
	p := NewPacer(0, 0, 3, time.Minute)
	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	for i := 0; i < 7; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}

	if p.Count() != 7 {
		t.Errorf("Count() = %d, want 7", p.Count())
	}
	if len(slept) != 2 {
		t.Fatalf("pauses = %v, want 2", slept)
	}
	for _, d := range slept {
		if d != time.Minute {
			t.Errorf("pause = %v, want 1m", d)
		}
	}
}

func TestPacerJitterWithinRange(t *testing.T) {
	p := NewPacer(time.Millisecond, 50*time.Millisecond, 0, 0)
	var maxSeen time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		if d > maxSeen {
			maxSeen = d
		}
		return nil
	}
	for i := 0; i < 5; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if maxSeen > 49*time.Millisecond {
		t.Errorf("jitter %v exceeds max-min", maxSeen)
	}
}

func TestPacerCancelled(t *testing.T) {
	p := NewPacer(time.Hour, time.Hour, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Fatal("Wait() on cancelled context should fail")
	}
}
