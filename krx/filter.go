package krx

import (
	"regexp"
	"strings"
)

var (
	spacSeries = regexp.MustCompile(`제[0-9]+호`)
	etfEtn     = regexp.MustCompile(`(?i)ETF|ETN`)
	trustFund  = regexp.MustCompile(`(?i)리츠|REIT|펀드`)
)

// Filter drops instruments that fundamental scoring cannot rate:
// preferred shares, SPACs, ETFs and ETNs, REITs and funds, and stocks
// flagged under administrative watch. The preferred-share rule is
// broad on purpose and also drops common stocks with 우 in the name.
func Filter(stocks []Stock) []Stock {
	kept := make([]Stock, 0, len(stocks))
	for _, s := range stocks {
		if excluded(s.Name) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func excluded(name string) bool {
	switch {
	case strings.Contains(name, "우"):
		return true
	case strings.Contains(name, "스팩"):
		return true
	case spacSeries.MatchString(name):
		return true
	case etfEtn.MatchString(name):
		return true
	case trustFund.MatchString(name):
		return true
	case strings.Contains(name, "관리"):
		return true
	}
	return false
}
