// Package dart is a client for the OpenDART disclosure API run by the
// Korean Financial Supervisory Service. It covers the corp code
// registry, annual financial statements, and share counts, which is
// what fundamental scoring needs.
package dart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://opendart.fss.or.kr/api"

// Report codes accepted by the statements endpoints.
const (
	ReportAnnual = "11011"
	ReportHalf   = "11012"
	ReportQ1     = "11013"
	ReportQ3     = "11014"
)

// ErrNoData means OpenDART has no records for the query (API status
// 013). Retrying will not help; callers should treat the key as
// settled.
var ErrNoData = errors.New("dart: no data for query")

// APIError is a non-OK OpenDART status other than the no-data case.
type APIError struct {
	Status  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dart: api status %s: %s", e.Status, e.Message)
}

// Client talks to OpenDART. It is safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	hc      *http.Client
	log     *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = base }
}

// WithLogger attaches a logger for request-level events.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient builds a client using apiKey for every request.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs a GET against path with the API key merged into params
// and returns the raw body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("crtfc_key", c.apiKey)

	u := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("dart: build request: %w", err)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dart: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dart: %s: unexpected HTTP status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dart: %s: read body: %w", path, err)
	}

	c.log.Debug("dart request",
		zap.String("path", path),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}

// getJSON fetches path and decodes the response into v after checking
// the OpenDART status envelope.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return err
	}

	var envelope struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("dart: %s: decode envelope: %w", path, err)
	}

	switch envelope.Status {
	case "000":
	case "013":
		return ErrNoData
	default:
		return &APIError{Status: envelope.Status, Message: envelope.Message}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("dart: %s: decode payload: %w", path, err)
	}
	return nil
}
