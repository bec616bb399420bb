// Package readiness waits for a freshly launched endpoint to start answering.
package readiness

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/entrhq/xpidriver/pkg/domain"
)

const (
	// DefaultInterval is the pause between probes.
	DefaultInterval = 250 * time.Millisecond

	// DefaultRequestTimeout bounds a single probe request.
	DefaultRequestTimeout = 2 * time.Second
)

// HTTPProber polls a URL with GET requests. Any HTTP response, whatever its
// status, means the endpoint is up: only a transport error counts as
// unreachable.
type HTTPProber struct {
	Client   *http.Client
	Interval time.Duration
}

// NewHTTPProber returns a prober with the default interval and per-request
// timeout.
func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		Client:   &http.Client{Timeout: DefaultRequestTimeout},
		Interval: DefaultInterval,
	}
}

// AwaitReachable blocks until url answers, timeout elapses or ctx is done.
// On failure the returned error wraps domain.ErrNotReachable.
func (p *HTTPProber) AwaitReachable(ctx context.Context, url string, timeout time.Duration) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		if lastErr = p.probe(ctx, url); lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s after %s: %v", domain.ErrNotReachable, url, timeout, lastErr)
		case <-ticker.C:
		}
	}
}

func (p *HTTPProber) probe(ctx context.Context, url string) error {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create probe request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
