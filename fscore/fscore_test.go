package fscore

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/kscanlab/kscan/dart"
)

func metric(cur, prev int64) dart.Metric {
	return dart.Metric{
		Current:  decimal.NewFromInt(cur),
		Previous: decimal.NewFromInt(prev),
	}
}

// improving has every signal passing.
func improving() *dart.Financials {
	return &dart.Financials{
		StockCode:       "005930",
		Year:            "2025",
		NetIncome:       metric(150, 100),
		TotalAssets:     metric(1000, 1000),
		TotalDebt:       metric(300, 400),
		Revenue:         metric(900, 800),
		OperatingIncome: metric(120, 80),
		Shares:          metric(500, 500),
	}
}

func TestCalculate_AllSignalsPass(t *testing.T) {
	s := Calculate("삼성전자", improving())

	if s.Total != MaxScore {
		t.Errorf("expected perfect score %d, got %d: %+v", MaxScore, s.Total, s)
	}
	if s.Rating() != "Strong Buy" {
		t.Errorf("expected Strong Buy, got %s", s.Rating())
	}
	if s.Code != "005930" || s.Name != "삼성전자" {
		t.Errorf("identity fields lost: %+v", s)
	}
}

func TestCalculate_AllSignalsFail(t *testing.T) {
	f := &dart.Financials{
		StockCode:       "035720",
		Year:            "2025",
		NetIncome:       metric(-50, 100),
		TotalAssets:     metric(1000, 800),
		TotalDebt:       metric(500, 300),
		Revenue:         metric(700, 800),
		OperatingIncome: metric(30, 90),
		Shares:          metric(600, 500),
	}

	s := Calculate("카카오", f)

	if s.Total != 0 {
		t.Errorf("expected score 0, got %d: %+v", s.Total, s)
	}
	if s.Rating() != "Avoid" {
		t.Errorf("expected Avoid, got %s", s.Rating())
	}
}

func TestCalculate_IndividualSignals(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dart.Financials)
		check  func(Score) bool
	}{
		{
			"negative net income fails first signal",
			func(f *dart.Financials) { f.NetIncome.Current = decimal.NewFromInt(-10) },
			func(s Score) bool { return !s.NetIncomePositive },
		},
		{
			"flat ROA fails",
			func(f *dart.Financials) { f.NetIncome = metric(100, 100) },
			func(s Score) bool { return !s.ROAIncreasing },
		},
		{
			"rising debt ratio fails",
			func(f *dart.Financials) { f.TotalDebt = metric(500, 400) },
			func(s Score) bool { return !s.DebtRatioDecreasing },
		},
		{
			"buyback passes shares signal",
			func(f *dart.Financials) { f.Shares = metric(450, 500) },
			func(s Score) bool { return s.SharesNotIncreasing },
		},
		{
			"dilution fails shares signal",
			func(f *dart.Financials) { f.Shares = metric(550, 500) },
			func(s Score) bool { return !s.SharesNotIncreasing },
		},
		{
			"shrinking margin fails",
			func(f *dart.Financials) { f.OperatingIncome = metric(50, 80) },
			func(s Score) bool { return !s.OperatingMarginIncreasing },
		},
		{
			"slower turnover fails",
			func(f *dart.Financials) { f.Revenue = metric(700, 800) },
			func(s Score) bool { return !s.AssetTurnoverIncreasing },
		},
	}

	for _, c := range cases {
		f := improving()
		c.mutate(f)
		if s := Calculate("x", f); !c.check(s) {
			t.Errorf("%s: got %+v", c.name, s)
		}
	}
}

func TestCalculate_ZeroDenominatorsDoNotPanic(t *testing.T) {
	f := improving()
	f.TotalAssets = metric(0, 0)
	f.Revenue = metric(0, 0)

	s := Calculate("x", f)

	// Only net income and shares can still pass.
	if s.Total != 2 {
		t.Errorf("expected 2 with dead denominators, got %d: %+v", s.Total, s)
	}
	if s.ROAIncreasing || s.AssetTurnoverIncreasing || s.OperatingMarginIncreasing {
		t.Errorf("ratio signals should fail on zero denominators: %+v", s)
	}
}

// improvingFull extends the passing fixture with the cash flow items.
func improvingFull() *dart.Financials {
	f := improving()
	f.OperatingCF = metric(200, 150)
	f.HasOperatingCF = true
	f.CurrentAssets = metric(600, 500)
	f.CurrentLiabilities = metric(200, 250)
	f.HasCurrentRatio = true
	return f
}

func TestCalculateFull_AllSignalsPass(t *testing.T) {
	s := CalculateFull("삼성전자", improvingFull())

	if s.Total != FullMaxScore {
		t.Errorf("expected perfect score %d, got %d: %+v", FullMaxScore, s.Total, s)
	}
	if !s.Full || s.Max() != FullMaxScore {
		t.Errorf("expected full-scale score, got %+v", s)
	}
	if !s.OperatingCFPositive || !s.CFExceedsNetIncome || !s.CurrentRatioIncreasing {
		t.Errorf("cash flow signals should pass: %+v", s)
	}
}

func TestCalculateFull_MissingCashFlowSkipsSignals(t *testing.T) {
	f := improvingFull()
	f.HasOperatingCF = false
	f.HasCurrentRatio = false

	s := CalculateFull("x", f)

	// The six lite signals still pass; the extras are simply absent.
	if s.Total != MaxScore {
		t.Errorf("expected %d without cash flow data, got %d: %+v", MaxScore, s.Total, s)
	}
	if s.OperatingCFPositive || s.CFExceedsNetIncome || s.CurrentRatioIncreasing {
		t.Errorf("skipped signals should stay false: %+v", s)
	}
}

func TestCalculateFull_AccrualSignal(t *testing.T) {
	f := improvingFull()
	// Positive cash flow that trails net income: signal 7 passes,
	// signal 8 does not.
	f.OperatingCF = metric(100, 80)
	f.NetIncome = metric(150, 100)

	s := CalculateFull("x", f)

	if !s.OperatingCFPositive {
		t.Errorf("positive cash flow should pass: %+v", s)
	}
	if s.CFExceedsNetIncome {
		t.Errorf("cash flow below net income should fail the accrual check: %+v", s)
	}
}

func TestCalculateFull_ZeroCurrentLiabilities(t *testing.T) {
	f := improvingFull()
	f.CurrentLiabilities = metric(0, 250)

	s := CalculateFull("x", f)

	if s.CurrentRatioIncreasing {
		t.Errorf("zero liabilities should fail the current ratio signal: %+v", s)
	}
}

func TestRatingBuckets(t *testing.T) {
	cases := []struct {
		total int
		want  string
	}{
		{6, "Strong Buy"}, {5, "Strong Buy"},
		{4, "Buy"}, {3, "Hold"}, {2, "Watch"}, {1, "Avoid"}, {0, "Avoid"},
	}
	for _, c := range cases {
		if got := (Score{Total: c.total}).Rating(); got != c.want {
			t.Errorf("total %d: expected %s, got %s", c.total, c.want, got)
		}
	}
}

func TestRatingBucketsFull(t *testing.T) {
	cases := []struct {
		total int
		want  string
	}{
		{9, "Strong Buy"}, {8, "Strong Buy"},
		{7, "Buy"}, {6, "Buy"}, {5, "Hold"},
		{4, "Watch"}, {3, "Watch"}, {2, "Avoid"}, {0, "Avoid"},
	}
	for _, c := range cases {
		if got := (Score{Total: c.total, Full: true}).Rating(); got != c.want {
			t.Errorf("total %d: expected %s, got %s", c.total, c.want, got)
		}
	}
}

func TestCodecRoundtrip(t *testing.T) {
	s := Calculate("삼성전자", improving())
	c := Codec{}

	fields := c.Encode(s)
	if len(fields) != len(c.Header()) {
		t.Fatalf("encoded %d fields for %d columns", len(fields), len(c.Header()))
	}

	back, err := c.Decode(fields)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if back.Name != s.Name || back.Total != s.Total || back.ROAIncreasing != s.ROAIncreasing {
		t.Errorf("roundtrip mismatch: %+v vs %+v", back, s)
	}
}

func TestCodecRoundtripFull(t *testing.T) {
	s := CalculateFull("삼성전자", improvingFull())
	c := Codec{Full: true}

	fields := c.Encode(s)
	if len(fields) != len(c.Header()) {
		t.Fatalf("encoded %d fields for %d columns", len(fields), len(c.Header()))
	}

	back, err := c.Decode(fields)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !back.Full || back.Total != s.Total {
		t.Errorf("roundtrip mismatch: %+v vs %+v", back, s)
	}
	if back.OperatingCFPositive != s.OperatingCFPositive ||
		back.CFExceedsNetIncome != s.CFExceedsNetIncome ||
		back.CurrentRatioIncreasing != s.CurrentRatioIncreasing {
		t.Errorf("cash flow flags lost: %+v vs %+v", back, s)
	}
}
