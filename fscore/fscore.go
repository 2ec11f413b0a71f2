// Package fscore computes a Piotroski F-Score from two years of annual
// filings. The lite score checks the six signals OpenDART reports for
// every listing; the full score adds three cash flow and liquidity
// signals for filings that carry a cash flow statement, skipping them
// where the data is absent.
package fscore

import (
	"github.com/shopspring/decimal"

	"github.com/kscanlab/kscan/dart"
)

// Signal counts for the two scoring modes.
const (
	MaxScore     = 6
	FullMaxScore = 9
)

// Score is the scoring result for one company. The three cash flow
// signals only count when Full is set.
type Score struct {
	Code string
	Name string
	Year string

	Total int
	Full  bool

	NetIncomePositive         bool
	ROAIncreasing             bool
	DebtRatioDecreasing       bool
	SharesNotIncreasing       bool
	OperatingMarginIncreasing bool
	AssetTurnoverIncreasing   bool

	OperatingCFPositive    bool
	CFExceedsNetIncome     bool
	CurrentRatioIncreasing bool

	// Ratios backing the year-over-year signals, for reporting.
	ROACurrent           decimal.Decimal
	ROAPrevious          decimal.Decimal
	DebtRatioCurrent     decimal.Decimal
	DebtRatioPrevious    decimal.Decimal
	CurrentRatioCurrent  decimal.Decimal
	CurrentRatioPrevious decimal.Decimal
}

// Max is the number of signals the score was checked against.
func (s Score) Max() int {
	if s.Full {
		return FullMaxScore
	}
	return MaxScore
}

// Rating buckets a score the way the original screening notes do. The
// full scale keeps the lite cutoffs shifted up by the three extra
// signals, with 6 of 9 as the buy line.
func (s Score) Rating() string {
	if s.Full {
		switch {
		case s.Total >= 8:
			return "Strong Buy"
		case s.Total >= 6:
			return "Buy"
		case s.Total >= 5:
			return "Hold"
		case s.Total >= 3:
			return "Watch"
		default:
			return "Avoid"
		}
	}
	switch {
	case s.Total >= 5:
		return "Strong Buy"
	case s.Total >= 4:
		return "Buy"
	case s.Total >= 3:
		return "Hold"
	case s.Total >= 2:
		return "Watch"
	default:
		return "Avoid"
	}
}

// Calculate scores f. Signals whose inputs would divide by zero simply
// do not pass; the filing is still scorable.
func Calculate(name string, f *dart.Financials) Score {
	s := Score{Code: f.StockCode, Name: name, Year: f.Year}

	if f.NetIncome.Current.IsPositive() {
		s.NetIncomePositive = true
		s.Total++
	}

	if roaCur, roaPrev, ok := ratioPair(f.NetIncome, f.TotalAssets); ok {
		s.ROACurrent = roaCur
		s.ROAPrevious = roaPrev
		if roaCur.GreaterThan(roaPrev) {
			s.ROAIncreasing = true
			s.Total++
		}
	}

	if drCur, drPrev, ok := ratioPair(f.TotalDebt, f.TotalAssets); ok {
		s.DebtRatioCurrent = drCur
		s.DebtRatioPrevious = drPrev
		if drCur.LessThan(drPrev) {
			s.DebtRatioDecreasing = true
			s.Total++
		}
	}

	if f.Shares.Current.LessThanOrEqual(f.Shares.Previous) && f.Shares.Previous.IsPositive() {
		s.SharesNotIncreasing = true
		s.Total++
	}

	if mCur, mPrev, ok := ratioPair(f.OperatingIncome, f.Revenue); ok {
		if mCur.GreaterThan(mPrev) {
			s.OperatingMarginIncreasing = true
			s.Total++
		}
	}

	if tCur, tPrev, ok := ratioPair(f.Revenue, f.TotalAssets); ok {
		if tCur.GreaterThan(tPrev) {
			s.AssetTurnoverIncreasing = true
			s.Total++
		}
	}

	return s
}

// CalculateFull scores all nine signals. The three cash flow signals
// are checked only when the filing reports the backing accounts, so a
// company without a cash flow statement scores like the lite variant.
func CalculateFull(name string, f *dart.Financials) Score {
	s := Calculate(name, f)
	s.Full = true

	if f.HasOperatingCF {
		if f.OperatingCF.Current.IsPositive() {
			s.OperatingCFPositive = true
			s.Total++
		}
		if f.OperatingCF.Current.GreaterThan(f.NetIncome.Current) {
			s.CFExceedsNetIncome = true
			s.Total++
		}
	}

	if f.HasCurrentRatio {
		if crCur, crPrev, ok := ratioPair(f.CurrentAssets, f.CurrentLiabilities); ok {
			s.CurrentRatioCurrent = crCur
			s.CurrentRatioPrevious = crPrev
			if crCur.GreaterThan(crPrev) {
				s.CurrentRatioIncreasing = true
				s.Total++
			}
		}
	}

	return s
}

// ratioPair computes numerator/denominator for both years, reporting
// false when either denominator is zero.
func ratioPair(num, den dart.Metric) (cur, prev decimal.Decimal, ok bool) {
	if den.Current.IsZero() || den.Previous.IsZero() {
		return decimal.Zero, decimal.Zero, false
	}
	return num.Current.Div(den.Current), num.Previous.Div(den.Previous), true
}
