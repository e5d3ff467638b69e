// Package submit delivers answer records to the configured HTTP sink.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/m3rciful/checkbot/core/logger"
	"github.com/m3rciful/checkbot/internal/survey"
)

// ErrSinkStatus marks a non-2xx response from the sink.
var ErrSinkStatus = errors.New("submit: sink returned non-success status")

// Client posts one record per call, at most once. There are no retries:
// a failed record is counted and logged, then dropped.
type Client struct {
	url     string
	client  *http.Client
	timeout time.Duration
	errs    atomic.Uint64
}

// New builds a client for the sink URL. timeout bounds each POST.
func New(sinkURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url: sinkURL,
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Submit performs one synchronous JSON POST of the record. Any failure is
// returned for logging only; the caller never retries.
func (c *Client) Submit(ctx context.Context, rec survey.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return c.fail(ctx, rec, fmt.Errorf("submit: encode record: %w", err))
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return c.fail(ctx, rec, fmt.Errorf("submit: build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return c.fail(ctx, rec, fmt.Errorf("submit: post record: %w", err))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.fail(ctx, rec, fmt.Errorf("%w: %d", ErrSinkStatus, resp.StatusCode))
	}

	logger.Debug(ctx, "submit", "sink.ok",
		slog.String("answer", rec.Answer),
		slog.String("category", rec.Category),
		slog.Int("http_code", resp.StatusCode),
	)
	return nil
}

// ErrorCount returns the number of records that failed to deliver.
func (c *Client) ErrorCount() uint64 {
	return c.errs.Load()
}

func (c *Client) fail(ctx context.Context, rec survey.Record, err error) error {
	c.errs.Add(1)
	logger.Error(ctx, "submit", "sink.fail",
		slog.String("answer", rec.Answer),
		slog.String("category", rec.Category),
		slog.String("error_kind", classify(err)),
		slog.String("err", err.Error()),
	)
	return err
}

func classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrSinkStatus):
		return "http_status"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "dial"
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
		if kind := classify(urlErr.Err); kind != "unknown" && kind != "" {
			return kind
		}
	}

	return "unknown"
}
