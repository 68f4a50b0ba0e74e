package fpl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	DefaultBaseURL = "https://fantasy.premierleague.com"
	userAgent      = "fplstandings/1.0"
	maxBodyBytes   = 16 << 20
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status code: %d", e.Path, e.StatusCode)
}

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	Logger     *slog.Logger
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	logger     *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger,
	}
}

// GetRaw fetches path (e.g. "/api/bootstrap-static/") and returns the body bytes.
// Network errors and 429/5xx answers are retried with linear backoff.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body, retry, err := c.do(ctx, path, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || attempt == c.maxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * 500 * time.Millisecond
		c.logger.Debug("Retrying upstream request", "path", path, "attempt", attempt+1, "backoff", backoff, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, path, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, true, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, isRetryableStatus(resp.StatusCode), &StatusError{Path: path, StatusCode: resp.StatusCode}
	}
	return body, false, nil
}

// Get fetches path and decodes the JSON body into result.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	body, err := c.GetRaw(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
