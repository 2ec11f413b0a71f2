package fscore

import (
	"fmt"
	"strconv"
)

// Codec lays out a Score as checkpoint and results columns. Full adds
// the three cash flow signal columns, so full runs keep a separate
// checkpoint kind from lite runs.
type Codec struct {
	Full bool
}

func (c Codec) Header() []string {
	h := []string{
		"name", "year", "total", "rating",
		"net_income_positive", "roa_increasing", "debt_ratio_decreasing",
		"shares_not_increasing", "op_margin_increasing", "asset_turnover_increasing",
	}
	if c.Full {
		h = append(h, "operating_cf_positive", "cf_exceeds_net_income", "current_ratio_increasing")
	}
	return h
}

func (c Codec) Encode(s Score) []string {
	row := []string{
		s.Name,
		s.Year,
		strconv.Itoa(s.Total),
		s.Rating(),
		flag(s.NetIncomePositive),
		flag(s.ROAIncreasing),
		flag(s.DebtRatioDecreasing),
		flag(s.SharesNotIncreasing),
		flag(s.OperatingMarginIncreasing),
		flag(s.AssetTurnoverIncreasing),
	}
	if c.Full {
		row = append(row,
			flag(s.OperatingCFPositive),
			flag(s.CFExceedsNetIncome),
			flag(s.CurrentRatioIncreasing),
		)
	}
	return row
}

func (c Codec) Decode(fields []string) (Score, error) {
	total, err := strconv.Atoi(fields[2])
	if err != nil {
		return Score{}, fmt.Errorf("fscore: parse total: %w", err)
	}
	s := Score{
		Name:  fields[0],
		Year:  fields[1],
		Total: total,
		Full:  c.Full,
	}
	flags := []*bool{
		&s.NetIncomePositive, &s.ROAIncreasing, &s.DebtRatioDecreasing,
		&s.SharesNotIncreasing, &s.OperatingMarginIncreasing, &s.AssetTurnoverIncreasing,
	}
	if c.Full {
		flags = append(flags, &s.OperatingCFPositive, &s.CFExceedsNetIncome, &s.CurrentRatioIncreasing)
	}
	for i, dst := range flags {
		*dst = fields[4+i] == "1"
	}
	return s, nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
