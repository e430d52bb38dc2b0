// internal/adapters/ratesapi/client.go
package ratesapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"rental_yield/internal/adapters/observability"
	"rental_yield/internal/domain"
)

const (
	maxAttempts   = 4
	maxQuoteBytes = 1 << 20
)

var (
	ErrNotFound     = fmt.Errorf("ratesapi: %w", domain.ErrNotFound)
	ErrUnauthorized = fmt.Errorf("ratesapi: unauthorized: %w", domain.ErrAccessDenied)
	ErrForbidden    = fmt.Errorf("ratesapi: forbidden: %w", domain.ErrAccessDenied)
	// ErrEmptyQuote is a 204, an empty body, null or {} in place of a quote.
	ErrEmptyQuote = fmt.Errorf("ratesapi: empty rent quote: %w", domain.ErrInvalidInput)
)

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("rates base URL is required")
	}
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// rentEndpoint is one URL form the feed has served quotes under; label
// names it in the outbound metrics.
type rentEndpoint struct {
	label string
	url   string
}

func (c *Client) rentEndpoints(b domain.BedroomCategory) []rentEndpoint {
	return []rentEndpoint{
		{"rents", fmt.Sprintf("%s/rents/%s", c.base, url.PathEscape(strings.ToLower(string(b))))},
		{"rent_legacy", fmt.Sprintf("%s/rent?bedrooms=%s", c.base, url.QueryEscape(string(b)))},
	}
}

// GetRent returns the raw rent quote for one bedroom category. The current
// /rents/{bedrooms} path is tried first; only a 404 there falls through to
// the legacy query form.
func (c *Client) GetRent(ctx context.Context, b domain.BedroomCategory) (map[string]any, error) {
	var notFound error
	for _, ep := range c.rentEndpoints(b) {
		quote, err := c.fetchQuote(ctx, ep)
		switch {
		case err == nil:
			return quote, nil
		case errors.Is(err, ErrNotFound):
			notFound = err
		default:
			return nil, fmt.Errorf("rent quote for %s: %w", b, err)
		}
	}
	return nil, fmt.Errorf("rent quote for %s: %w", b, notFound)
}

// fetchQuote performs one throttled GET with retries on 429 and transient
// 5xx, honouring Retry-After when the feed sends it.
func (c *Client) fetchQuote(ctx context.Context, ep rentEndpoint) (map[string]any, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		resp, err := c.do(ctx, ep)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			break
		}

		quote, wait, err := readQuote(resp)
		if wait < 0 {
			return quote, err
		}
		lastErr = err
		if wait == 0 {
			wait = backoff(i)
		}
		if i < maxAttempts-1 && sleepCtx(ctx, wait) {
			continue
		}
		break
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, ep rentEndpoint) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.url, nil)
	if err != nil {
		return nil, err
	}
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "rental-yield/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	status := 0
	if err == nil {
		status = resp.StatusCode
	}
	observability.ObserveExternal("ratesapi", ep.label, status, time.Since(start))
	return resp, err
}

// readQuote consumes and closes resp. A negative wait means the outcome is
// final; otherwise the request may be retried after wait (0: use backoff).
func readQuote(resp *http.Response) (map[string]any, time.Duration, error) {
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		q, err := decodeQuote(resp.Body)
		return q, -1, err
	case http.StatusNoContent:
		return nil, -1, ErrEmptyQuote
	case http.StatusNotFound:
		return nil, -1, ErrNotFound
	case http.StatusUnauthorized:
		return nil, -1, ErrUnauthorized
	case http.StatusForbidden:
		return nil, -1, ErrForbidden
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, retryAfter(resp), fmt.Errorf("rates feed returned %d", resp.StatusCode)
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return nil, -1, fmt.Errorf("rates feed returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

func decodeQuote(r io.Reader) (map[string]any, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxQuoteBytes))
	if err != nil {
		return nil, fmt.Errorf("read rent quote: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrEmptyQuote
	}
	var quote map[string]any
	if err := json.Unmarshal(raw, &quote); err != nil {
		return nil, fmt.Errorf("decode rent quote: %w", err)
	}
	if len(quote) == 0 { // null or {}
		return nil, ErrEmptyQuote
	}
	return quote, nil
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff: 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
