// Package nasa provides the HTTP client for the NASA NeoWs REST API.
//
// NeoWs uses query parameter auth (api_key) and groups feed results into
// per-day buckets keyed by YYYY-MM-DD. Rate limiting is handled via a token
// bucket limiter.
package nasa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DateLayout is the calendar date format NeoWs accepts and returns.
const DateLayout = "2006-01-02"

// ErrMissingKey is returned before any request is made when no API key is
// configured.
var ErrMissingKey = errors.New("NASA_API_KEY is missing")

// UpstreamError is a non-success response from NeoWs. Message carries the
// upstream's own explanation when one is present, else "HTTP <status>".
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return "NASA API: " + e.Message
}

// NotFound reports whether the upstream answered 404.
func (e *UpstreamError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// Client is the HTTP client for NeoWs endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a NeoWs HTTP client with rate limiting. timeout bounds
// every request end to end.
func NewClient(baseURL, apiKey string, timeout time.Duration, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// HasKey reports whether an API key is configured.
func (c *Client) HasKey() bool {
	return c.apiKey != ""
}

// feedResponse is the /feed envelope. Buckets stay raw so one malformed day
// cannot fail the whole window.
type feedResponse struct {
	ElementCount     int                        `json:"element_count"`
	NearEarthObjects map[string]json.RawMessage `json:"near_earth_objects"`
}

// FetchWindow requests the feed for [start, end] and returns the raw records
// grouped by close approach day.
func (c *Client) FetchWindow(ctx context.Context, start, end time.Time) (map[string][]json.RawMessage, error) {
	params := url.Values{}
	params.Set("start_date", start.Format(DateLayout))
	params.Set("end_date", end.Format(DateLayout))

	body, err := c.get(ctx, "/feed", params)
	if err != nil {
		return nil, err
	}

	var resp feedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	buckets := make(map[string][]json.RawMessage, len(resp.NearEarthObjects))
	for day, raw := range resp.NearEarthObjects {
		var records []json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil || records == nil {
			c.logger.Warn("Skipping malformed feed day", "day", day, "error", err)
			continue
		}
		buckets[day] = records
	}

	c.logger.Debug("Fetched NEO feed",
		"start", start.Format(DateLayout),
		"end", end.Format(DateLayout),
		"days", len(buckets),
		"element_count", resp.ElementCount)
	return buckets, nil
}

// FetchByID requests a single object record.
func (c *Client) FetchByID(ctx context.Context, id string) (json.RawMessage, error) {
	return c.get(ctx, "/neo/"+url.PathEscape(id), nil)
}

// get performs a rate-limited GET request to a NeoWs endpoint.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if !c.HasKey() {
		return nil, ErrMissingKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	u := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("NeoWs request failed",
			"path", path, "status", resp.StatusCode, "body", truncate(body, 200))
		return nil, &UpstreamError{Status: resp.StatusCode, Message: upstreamMessage(resp.StatusCode, body)}
	}

	return body, nil
}

// upstreamMessage picks the most specific explanation from an error body:
// error_message, then message, then error (a string or an object with its
// own message), falling back to "HTTP <status>".
func upstreamMessage(status int, body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error_message", "message"} {
			if s := rawString(payload[key]); s != "" {
				return s
			}
		}
		if raw, ok := payload["error"]; ok {
			if s := rawString(raw); s != "" {
				return s
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(raw, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// truncate returns a truncated string representation for log lines.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
