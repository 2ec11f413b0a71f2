package krx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kscanlab/kscan/technical"
)

const defaultChartURL = "https://api.finance.naver.com/siseJson.naver"

// ChartClient fetches daily OHLCV history from the Naver finance
// chart endpoint, the same upstream the KRX market data tools read.
type ChartClient struct {
	baseURL string
	hc      *http.Client
	log     *zap.Logger
}

// ChartOption configures a ChartClient.
type ChartOption func(*ChartClient)

// WithChartHTTPClient replaces the underlying HTTP client.
func WithChartHTTPClient(hc *http.Client) ChartOption {
	return func(c *ChartClient) { c.hc = hc }
}

// WithChartBaseURL points the client at a different endpoint.
func WithChartBaseURL(base string) ChartOption {
	return func(c *ChartClient) { c.baseURL = base }
}

// WithChartLogger attaches a logger.
func WithChartLogger(log *zap.Logger) ChartOption {
	return func(c *ChartClient) { c.log = log }
}

// NewChartClient builds a chart client with a 30s request timeout.
func NewChartClient(opts ...ChartOption) *ChartClient {
	c := &ChartClient{
		baseURL: defaultChartURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Daily returns the daily bars for code between start and end,
// inclusive, oldest first. Days the market was closed are absent.
func (c *ChartClient) Daily(ctx context.Context, code string, start, end time.Time) ([]technical.Bar, error) {
	params := url.Values{
		"symbol":      {code},
		"requestType": {"1"},
		"startTime":   {start.Format("20060102")},
		"endTime":     {end.Format("20060102")},
		"timeframe":   {"day"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("krx: build chart request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("krx: fetch chart %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("krx: chart %s: unexpected HTTP status %d", code, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("krx: chart %s: read body: %w", code, err)
	}

	bars, err := parseChart(body)
	if err != nil {
		return nil, fmt.Errorf("krx: chart %s: %w", code, err)
	}

	c.log.Debug("chart fetched",
		zap.String("code", code),
		zap.Int("bars", len(bars)),
	)
	return bars, nil
}

// parseChart reads the endpoint's quasi-JSON payload: a nested array
// whose header strings use single quotes.
func parseChart(body []byte) ([]technical.Bar, error) {
	text := strings.ReplaceAll(string(body), "'", `"`)

	var rows [][]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &rows); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no price rows")
	}

	bars := make([]technical.Bar, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 6 {
			continue
		}

		var dateStr string
		if err := json.Unmarshal(row[0], &dateStr); err != nil {
			continue
		}
		date, err := time.Parse("20060102", dateStr)
		if err != nil {
			continue
		}

		var vals [5]float64
		bad := false
		for i := 0; i < 5; i++ {
			if err := json.Unmarshal(row[i+1], &vals[i]); err != nil {
				bad = true
				break
			}
		}
		if bad {
			continue
		}

		bars = append(bars, technical.Bar{
			Date:   date,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no parsable price rows")
	}
	return bars, nil
}
