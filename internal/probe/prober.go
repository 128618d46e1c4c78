// SPDX-License-Identifier: MIT

// Package probe issues bounded HEAD requests against candidate media URLs.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pbartsch/mediamend/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout caps the total wall time of one probe.
	DefaultTimeout = 5 * time.Second
	// DefaultMaxRedirects bounds the redirect chain a probe will follow.
	DefaultMaxRedirects = 5
)

// Result carries the relevant response facts of a successful HTTP exchange.
// Non-2xx statuses are still Results; only transport failures are errors.
type Result struct {
	Status      int
	StatusText  string
	ContentType string
	Headers     http.Header
}

// TransportError marks DNS, TCP, TLS and timeout failures. It is
// deliberately distinct from an HTTP error status.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Config tunes a Prober.
type Config struct {
	Timeout      time.Duration
	MaxRedirects int
	// RequestsPerSecond throttles outbound probes; zero disables throttling.
	RequestsPerSecond float64
	// Transport overrides the underlying round tripper (tests).
	Transport http.RoundTripper
}

// Prober issues HEAD requests with a shared, concurrency-safe client.
type Prober struct {
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// New builds a Prober from cfg, applying defaults for zero values.
func New(cfg Config) *Prober {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(transport),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Prober{client: client, limiter: limiter, timeout: timeout}
}

// Head probes the URL once. The response body is never read. Transport
// failures return a *TransportError; HTTP error statuses do not.
func (p *Prober) Head(ctx context.Context, url string) (Result, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return Result{}, &TransportError{URL: url, Err: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return Result{}, &TransportError{URL: url, Err: err}
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	metrics.ObserveProbeDuration(time.Since(start))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.IncProbeFailure("timeout")
		} else {
			metrics.IncProbeFailure("transport")
		}
		return Result{}, &TransportError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	statusText := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprintf("%d", resp.StatusCode)))

	return Result{
		Status:      resp.StatusCode,
		StatusText:  statusText,
		ContentType: resp.Header.Get("Content-Type"),
		Headers:     resp.Header.Clone(),
	}, nil
}
