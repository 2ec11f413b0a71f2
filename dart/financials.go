package dart

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Metric is a line item's value for the filing year and the year
// before it, which is what year-over-year scoring compares.
type Metric struct {
	Current  decimal.Decimal
	Previous decimal.Decimal
}

// Financials carries the fundamentals needed to score a company:
// profitability, leverage, efficiency and dilution, each with two
// years of data from a single annual filing.
type Financials struct {
	StockCode       string
	CorpCode        string
	Year            string
	NetIncome       Metric
	TotalAssets     Metric
	TotalDebt       Metric
	Revenue         Metric
	OperatingIncome Metric
	Shares          Metric

	// Cash flow and liquidity items back the three extra signals of
	// the full score. Not every filing carries them, so absence keeps
	// the company scorable and only skips those signals.
	OperatingCF        Metric
	HasOperatingCF     bool
	CurrentAssets      Metric
	CurrentLiabilities Metric
	HasCurrentRatio    bool
}

// Account name variants seen across filings. Names are matched with
// internal spaces removed.
var (
	netIncomeNames    = []string{"당기순이익", "당기순이익(손실)", "연결당기순이익"}
	revenueNames      = []string{"매출액", "영업수익", "수익(매출액)"}
	opIncomeNames     = []string{"영업이익", "영업이익(손실)"}
	assetNames        = []string{"자산총계"}
	debtNames         = []string{"부채총계"}
	operatingCFNames  = []string{"영업활동으로인한현금흐름", "영업활동현금흐름"}
	currentAssetNames = []string{"유동자산"}
	currentLiabNames  = []string{"유동부채"}
)

// Financials pulls an annual filing plus the share registry and
// extracts the scoring inputs. A missing account makes the company
// unscorable for that year and reports ErrNoData.
func (c *Client) Financials(ctx context.Context, stockCode, corpCode, year string) (*Financials, error) {
	accounts, err := c.Statements(ctx, corpCode, year, ReportAnnual)
	if err != nil {
		return nil, err
	}

	f := &Financials{StockCode: stockCode, CorpCode: corpCode, Year: year}

	extract := []struct {
		name   string
		divs   []string
		names  []string
		metric *Metric
	}{
		{"net income", []string{DivIncome, DivComprehensive}, netIncomeNames, &f.NetIncome},
		{"total assets", []string{DivBalanceSheet}, assetNames, &f.TotalAssets},
		{"total debt", []string{DivBalanceSheet}, debtNames, &f.TotalDebt},
		{"revenue", []string{DivIncome, DivComprehensive}, revenueNames, &f.Revenue},
		{"operating income", []string{DivIncome, DivComprehensive}, opIncomeNames, &f.OperatingIncome},
	}
	for _, e := range extract {
		m, ok := findMetric(accounts, e.divs, e.names)
		if !ok {
			return nil, fmt.Errorf("dart: %s absent for %s/%s: %w", e.name, stockCode, year, ErrNoData)
		}
		*e.metric = m
	}

	if m, ok := findMetric(accounts, []string{DivCashFlow}, operatingCFNames); ok {
		f.OperatingCF = m
		f.HasOperatingCF = true
	}
	ca, okCA := findMetric(accounts, []string{DivBalanceSheet}, currentAssetNames)
	cl, okCL := findMetric(accounts, []string{DivBalanceSheet}, currentLiabNames)
	if okCA && okCL {
		f.CurrentAssets = ca
		f.CurrentLiabilities = cl
		f.HasCurrentRatio = true
	}

	sharesCur, err := c.SharesOutstanding(ctx, corpCode, year)
	if err != nil {
		return nil, err
	}
	prevYear, err := previousYear(year)
	if err != nil {
		return nil, err
	}
	sharesPrev, err := c.SharesOutstanding(ctx, corpCode, prevYear)
	if err != nil {
		return nil, err
	}
	f.Shares = Metric{Current: sharesCur, Previous: sharesPrev}

	return f, nil
}

// findMetric locates the first account whose division and normalized
// name match, and requires both years to be reported.
func findMetric(accounts []Account, divs, names []string) (Metric, bool) {
	for _, name := range names {
		for _, a := range accounts {
			if !slices.Contains(divs, a.SjDiv) {
				continue
			}
			if normalizeName(a.AccountNm) != normalizeName(name) {
				continue
			}
			cur, okCur := a.Current()
			prev, okPrev := a.Previous()
			if !okCur || !okPrev {
				continue
			}
			return Metric{Current: cur, Previous: prev}, true
		}
	}
	return Metric{}, false
}

func normalizeName(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}

func previousYear(year string) (string, error) {
	var y int
	if _, err := fmt.Sscanf(year, "%d", &y); err != nil {
		return "", fmt.Errorf("dart: bad year %q: %w", year, err)
	}
	return fmt.Sprintf("%d", y-1), nil
}
