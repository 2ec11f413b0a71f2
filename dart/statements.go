package dart

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Statement divisions as reported by OpenDART.
const (
	DivBalanceSheet  = "BS"
	DivIncome        = "IS"
	DivComprehensive = "CIS"
	DivCashFlow      = "CF"
)

// Account is one line item from a financial statement. Amounts are
// kept as strings on the wire; use Current and Previous for parsed
// values.
type Account struct {
	SjDiv     string `json:"sj_div"`
	AccountNm string `json:"account_nm"`
	Thstrm    string `json:"thstrm_amount"`
	Frmtrm    string `json:"frmtrm_amount"`
}

// Current returns this year's amount.
func (a Account) Current() (decimal.Decimal, bool) {
	return parseAmount(a.Thstrm)
}

// Previous returns last year's amount.
func (a Account) Previous() (decimal.Decimal, bool) {
	return parseAmount(a.Frmtrm)
}

// parseAmount handles OpenDART's comma-grouped figures. Blank and "-"
// mean not reported.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Statements fetches all line items of the annual filing identified by
// corpCode, year and reportCode. Consolidated statements (CFS) are
// tried first; companies without a consolidated filing fall back to
// the standalone ones (OFS), matching how DART publishes smaller
// listings.
func (c *Client) Statements(ctx context.Context, corpCode, year, reportCode string) ([]Account, error) {
	accounts, err := c.statements(ctx, corpCode, year, reportCode, "CFS")
	if errors.Is(err, ErrNoData) {
		accounts, err = c.statements(ctx, corpCode, year, reportCode, "OFS")
	}
	return accounts, err
}

func (c *Client) statements(ctx context.Context, corpCode, year, reportCode, fsDiv string) ([]Account, error) {
	params := url.Values{
		"corp_code":  {corpCode},
		"bsns_year":  {year},
		"reprt_code": {reportCode},
		"fs_div":     {fsDiv},
	}

	var payload struct {
		List []Account `json:"list"`
	}
	if err := c.getJSON(ctx, "/fnlttSinglAcntAll.json", params, &payload); err != nil {
		return nil, err
	}
	if len(payload.List) == 0 {
		return nil, ErrNoData
	}
	return payload.List, nil
}

// SharesOutstanding returns the issued common share count for the
// business year from the share status endpoint.
func (c *Client) SharesOutstanding(ctx context.Context, corpCode, year string) (decimal.Decimal, error) {
	params := url.Values{
		"corp_code":  {corpCode},
		"bsns_year":  {year},
		"reprt_code": {ReportAnnual},
	}

	var payload struct {
		List []struct {
			Se        string `json:"se"`
			IstcTotqy string `json:"istc_totqy"`
		} `json:"list"`
	}
	if err := c.getJSON(ctx, "/stockTotqySttus.json", params, &payload); err != nil {
		return decimal.Zero, err
	}

	for _, row := range payload.List {
		se := strings.TrimSpace(row.Se)
		if se != "보통주" && se != "합계" {
			continue
		}
		if n, ok := parseAmount(row.IstcTotqy); ok {
			return n, nil
		}
	}
	return decimal.Zero, fmt.Errorf("dart: share count absent for %s/%s: %w", corpCode, year, ErrNoData)
}
