package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pricelens/backend/internal/domain"
)

const (
	maxFetchAttempts = 3
	// maxDownloadBytes caps a remote price list; real exports are a few megabytes
	maxDownloadBytes = 64 << 20
	maxRedirects     = 10
)

// HTTPSource downloads price lists over HTTP(S)
type HTTPSource struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	logger      zerolog.Logger
}

// NewHTTPSource creates an HTTP source allowing perSecond downloads per second
func NewHTTPSource(timeout time.Duration, perSecond int, logger zerolog.Logger) *HTTPSource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if perSecond <= 0 {
		perSecond = 1
	}

	return &HTTPSource{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
		backoff:     exponentialBackoff,
		logger:      logger.With().Str("component", "http-source").Logger(),
	}
}

// RestrictRedirects makes the source refuse redirects to hosts outside hosts
func (s *HTTPSource) RestrictRedirects(hosts HostList) {
	s.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: stopped after %d redirects", domain.ErrRemoteFetch, maxRedirects)
		}
		if !hosts.Allows(req.URL.Hostname()) {
			return fmt.Errorf("%w: redirect to host %q", domain.ErrLocationNotAllowed, req.URL.Hostname())
		}
		return nil
	}
}

// exponentialBackoff returns the wait before retry number attempt: 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// Load downloads and decodes the price list at rawURL.
// The format comes from the URL path extension, or the Content-Type header when the path has none.
func (s *HTTPSource) Load(ctx context.Context, rawURL string, columns domain.Columns) ([]domain.RawRow, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL %q: %v", domain.ErrInvalidRequest, rawURL, err)
	}

	body, contentType, err := s.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	format, err := FormatFromName(u.Path)
	if err != nil {
		ctFormat, ok := formatFromContentType(contentType)
		if !ok {
			return nil, err
		}
		format = ctFormat
	}

	rows, err := Decode(bytes.NewReader(body), format, columns)
	if err != nil {
		return nil, fmt.Errorf("price list %s: %w", rawURL, err)
	}
	return rows, nil
}

// fetch performs the GET with retries. Client errors other than 429 are not retried.
func (s *HTTPSource) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, s.backoff(attempt-1)); err != nil {
				return nil, "", err
			}
		}

		if err := s.rateLimiter.Wait(ctx); err != nil {
			return nil, "", fmt.Errorf("rate limiter error: %w", err)
		}

		body, contentType, status, err := s.doRequest(ctx, rawURL)
		if err != nil {
			s.logger.Warn().Err(err).Int("attempt", attempt).Str("url", rawURL).Msg("download failed")
			lastErr = err
			if ctx.Err() != nil {
				return nil, "", ctx.Err()
			}
			if errors.Is(err, domain.ErrLocationNotAllowed) {
				return nil, "", err
			}
			continue
		}

		if status == http.StatusOK {
			s.logger.Debug().Str("url", rawURL).Int("bytes", len(body)).Msg("price list downloaded")
			return body, contentType, nil
		}

		lastErr = fmt.Errorf("%w: %s returned status %d", domain.ErrRemoteFetch, rawURL, status)
		s.logger.Warn().Int("attempt", attempt).Int("status", status).Str("url", rawURL).Msg("unexpected status")
		if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
			return nil, "", lastErr
		}
	}

	s.logger.Error().Err(lastErr).Str("url", rawURL).Msg("all download attempts failed")
	return nil, "", lastErr
}

// doRequest executes one GET and reads the capped body
func (s *HTTPSource) doRequest(ctx context.Context, rawURL string) ([]byte, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "PriceLens/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, domain.ErrLocationNotAllowed) {
			return nil, "", 0, err
		}
		return nil, "", 0, fmt.Errorf("%w: %v", domain.ErrRemoteFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, "", 0, fmt.Errorf("%w: reading body: %v", domain.ErrRemoteFetch, err)
	}
	if len(body) > maxDownloadBytes {
		return nil, "", 0, fmt.Errorf("%w: %s is larger than %d bytes", domain.ErrRemoteFetch, rawURL, maxDownloadBytes)
	}

	return body, resp.Header.Get("Content-Type"), resp.StatusCode, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
