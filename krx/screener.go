// Package krx builds the scan universe from the Korea Exchange
// corporate listings and narrows it with name-based filters, dropping
// instruments that fundamental scoring cannot apply to.
package krx

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"
)

const defaultBaseURL = "https://kind.krx.co.kr"

// Market identifies one of the two KRX boards.
type Market string

const (
	KOSPI  Market = "KOSPI"
	KOSDAQ Market = "KOSDAQ"
)

func (m Market) queryValue() string {
	if m == KOSDAQ {
		return "kosdaqMkt"
	}
	return "stockMkt"
}

// Stock is one listed company. Code is the 6-digit ticker; it doubles
// as the checkpoint key for every scan kind.
type Stock struct {
	Code   string
	Name   string
	Market Market
}

// Key implements the worker pool's item interface.
func (s Stock) Key() string { return s.Code }

// Screener downloads KRX listings.
type Screener struct {
	baseURL string
	hc      *http.Client
	log     *zap.Logger
}

// ScreenerOption configures a Screener.
type ScreenerOption func(*Screener)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ScreenerOption {
	return func(s *Screener) { s.hc = hc }
}

// WithBaseURL points the screener at a different host.
func WithBaseURL(base string) ScreenerOption {
	return func(s *Screener) { s.baseURL = base }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) ScreenerOption {
	return func(s *Screener) { s.log = log }
}

// NewScreener builds a screener with a 30s request timeout.
func NewScreener(opts ...ScreenerOption) *Screener {
	s := &Screener{
		baseURL: defaultBaseURL,
		hc:      &http.Client{Timeout: 30 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listings downloads every listed company on market. The endpoint
// serves an EUC-KR encoded HTML table.
func (s *Screener) Listings(ctx context.Context, market Market) ([]Stock, error) {
	params := url.Values{
		"method":     {"download"},
		"marketType": {market.queryValue()},
	}
	u := s.baseURL + "/corpgeneral/corpList.do?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("krx: build request: %w", err)
	}

	resp, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("krx: fetch %s listings: %w", market, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("krx: %s listings: unexpected HTTP status %d", market, resp.StatusCode)
	}

	decoded := transform.NewReader(resp.Body, korean.EUCKR.NewDecoder())
	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return nil, fmt.Errorf("krx: parse %s listings: %w", market, err)
	}

	var stocks []Stock
	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(0).Text())
		code := strings.TrimSpace(cells.Eq(1).Text())
		if name == "" || code == "" {
			return
		}
		stocks = append(stocks, Stock{
			Code:   padCode(code),
			Name:   name,
			Market: market,
		})
	})

	if len(stocks) == 0 {
		return nil, fmt.Errorf("krx: no rows in %s listings", market)
	}

	s.log.Info("listings fetched",
		zap.String("market", string(market)),
		zap.Int("count", len(stocks)),
	)
	return stocks, nil
}

// Universe fetches both boards and applies the screening filters.
func (s *Screener) Universe(ctx context.Context) ([]Stock, error) {
	var all []Stock
	for _, m := range []Market{KOSPI, KOSDAQ} {
		stocks, err := s.Listings(ctx, m)
		if err != nil {
			return nil, err
		}
		all = append(all, stocks...)
	}

	filtered := Filter(all)
	s.log.Info("universe screened",
		zap.Int("listed", len(all)),
		zap.Int("screened", len(filtered)),
	)
	return filtered, nil
}

// padCode left-pads a ticker to the 6 digits checkpoint keys use.
func padCode(code string) string {
	for len(code) < 6 {
		code = "0" + code
	}
	return code
}
