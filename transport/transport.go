// Package transport is the single canonical JSON POST used for every
// outbound call in the funnel: stage sinks, the token service, and the
// notifier webhook. The retry loops that used to be duplicated per caller
// live here once.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// DefaultBackoffUnit is the linear backoff base: attempt n sleeps
// n * DefaultBackoffUnit before retrying.
const DefaultBackoffUnit = 600 * time.Millisecond

// maxBodyPreview caps how much of a non-JSON response body is kept.
const maxBodyPreview = 500

// Options configures one logical POST.
type Options struct {
	// Headers are merged over the defaults. Content-Type is always JSON.
	Headers map[string]string
	// Timeout bounds each attempt. Zero means no per-attempt deadline
	// beyond the caller's context.
	Timeout time.Duration
	// Retries is the budget on top of the first attempt; at most
	// Retries+1 HTTP calls are made.
	Retries int
	// IdempotencyKey is sent as X-Idempotency-Key on every attempt. When
	// empty a key is generated for the call, so retries of one logical
	// submission always share a key.
	IdempotencyKey string
	// RequestID, when set, is sent as X-Request-ID.
	RequestID string
}

// Result is the classified outcome of a logical POST.
type Result struct {
	// OK is true when some attempt returned a 2xx status.
	OK bool
	// StatusCode is the last HTTP status seen, 0 when no response arrived.
	StatusCode int
	// Body is the parsed JSON response. A non-JSON body is wrapped as
	// {"text": <first 500 chars>}.
	Body map[string]any
	// TimedOut is true when the final failure was a deadline rather than a
	// definitive rejection. The stage-2 pipeline promotes this to pending.
	TimedOut bool
	// Err describes the final failure, empty on success.
	Err string
}

// Client posts JSON with bounded retries. The zero-value fields fall back
// to sane defaults; tests shrink backoffUnit to keep retry paths fast.
type Client struct {
	httpClient  *http.Client
	backoffUnit time.Duration
}

// NewClient returns a Client with the default backoff schedule.
func NewClient() *Client {
	return &Client{
		httpClient:  &http.Client{},
		backoffUnit: DefaultBackoffUnit,
	}
}

// NewClientWithBackoff returns a Client whose linear backoff uses the given
// unit. Intended for tests.
func NewClientWithBackoff(unit time.Duration) *Client {
	return &Client{
		httpClient:  &http.Client{},
		backoffUnit: unit,
	}
}

// PostJSON marshals payload and posts it to url, retrying transient
// failures (408, 429, 5xx, and network errors) with linear backoff until
// the retry budget is spent. All other 4xx are terminal. The idempotency
// key is identical across every attempt of the call.
func (c *Client) PostJSON(ctx context.Context, url string, payload any, opts Options) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Err: "marshal payload: " + err.Error()}
	}

	key := opts.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	var last Result
	for attempt := 1; attempt <= opts.Retries+1; attempt++ {
		last = c.attempt(ctx, url, body, key, opts)
		if last.OK || !retryable(last) {
			return last
		}
		if attempt > opts.Retries {
			break
		}
		if !sleep(ctx, time.Duration(attempt)*c.backoffUnit) {
			last.Err = "canceled during backoff: " + ctx.Err().Error()
			return last
		}
	}
	return last
}

func (c *Client) attempt(ctx context.Context, url string, body []byte, key string, opts Options) Result {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{Err: "build request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Idempotency-Key", key)
	if opts.RequestID != "" {
		req.Header.Set("X-Request-ID", opts.RequestID)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{
			TimedOut: errors.Is(err, context.DeadlineExceeded) || isTimeout(err),
			Err:      err.Error(),
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{
			StatusCode: resp.StatusCode,
			TimedOut:   errors.Is(err, context.DeadlineExceeded) || isTimeout(err),
			Err:        "read response: " + err.Error(),
		}
	}

	parsed := parseBody(raw)
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return Result{OK: true, StatusCode: resp.StatusCode, Body: parsed}
	}
	return Result{
		StatusCode: resp.StatusCode,
		Body:       parsed,
		Err:        http.StatusText(resp.StatusCode),
	}
}

func parseBody(raw []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		return m
	}
	text := string(raw)
	if len(text) > maxBodyPreview {
		// The preview is counted in characters, not bytes, so Korean
		// error text is never cut mid-rune.
		if runes := []rune(text); len(runes) > maxBodyPreview {
			text = string(runes[:maxBodyPreview])
		}
	}
	return map[string]any{"text": text}
}

// retryable reports whether a failed attempt may be tried again: request
// timeout, rate limiting, any server error, or a network-layer failure
// with no response at all.
func retryable(r Result) bool {
	if r.StatusCode == 0 {
		return true
	}
	switch {
	case r.StatusCode == http.StatusRequestTimeout:
		return true
	case r.StatusCode == http.StatusTooManyRequests:
		return true
	case r.StatusCode >= 500 && r.StatusCode <= 599:
		return true
	}
	return false
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// sleep waits for d unless the context ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
