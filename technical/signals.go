package technical

import (
	"fmt"
	"math"
)

// MaxTimingScore caps the summed signal scores.
const MaxTimingScore = 10

const goldenCrossLookback = 5

// Signal is one timing check's contribution.
type Signal struct {
	Name        string
	Score       float64
	Detected    bool
	Description string
}

// TimingScore is the aggregate entry-timing verdict for one stock.
type TimingScore struct {
	Score   float64
	Rating  string
	Signals []Signal
}

// ScoreTiming runs every timing check against the latest bar. The six
// signals sum to at most 10.
func ScoreTiming(bars []Bar, ind *Indicators) TimingScore {
	last := len(bars) - 1

	signals := []Signal{
		goldenCross(ind, last),
		maAlignment(ind, last),
		rsiZone(ind, last),
		macdSignal(ind, last),
		volumeSurge(ind, last),
		bollingerBounce(bars, ind, last),
	}

	var total float64
	for _, s := range signals {
		total += s.Score
	}
	total = math.Min(total, MaxTimingScore)

	return TimingScore{
		Score:   total,
		Rating:  timingRating(total),
		Signals: signals,
	}
}

func timingRating(score float64) string {
	switch {
	case score >= 7:
		return "A"
	case score >= 5:
		return "B"
	case score >= 3:
		return "C"
	default:
		return "D"
	}
}

// goldenCross scores 2 when the 20-day average crossed above the
// 60-day within the lookback window, 1 when it is simply above.
func goldenCross(ind *Indicators, last int) Signal {
	s := Signal{Name: "golden_cross"}

	back := last - goldenCrossLookback + 1
	if back < 0 {
		s.Description = "not enough history"
		return s
	}

	nowAbove := ind.SMA20[last] > ind.SMA60[last]
	wasBelow := ind.SMA20[back] <= ind.SMA60[back]

	switch {
	case nowAbove && wasBelow:
		s.Score = 2
		s.Detected = true
		s.Description = fmt.Sprintf("golden cross within %d days", goldenCrossLookback)
	case nowAbove:
		s.Score = 1
		s.Detected = true
		s.Description = "SMA20 above SMA60"
	default:
		s.Description = "SMA20 below SMA60"
	}
	return s
}

// maAlignment scores 1 for a full bullish stack, 0.5 when only the
// short averages align.
func maAlignment(ind *Indicators, last int) Signal {
	s := Signal{Name: "ma_alignment"}

	ma5, ma20, ma60 := ind.SMA5[last], ind.SMA20[last], ind.SMA60[last]

	switch {
	case ma5 > ma20 && ma20 > ma60:
		s.Score = 1
		s.Detected = true
		s.Description = "aligned 5>20>60"
	case ma5 > ma20:
		s.Score = 0.5
		s.Detected = true
		s.Description = "short-term aligned 5>20"
	default:
		s.Description = "not aligned"
	}
	return s
}

// rsiZone scores 1 inside the 30 to 70 band; overbought and oversold
// extremes score nothing.
func rsiZone(ind *Indicators, last int) Signal {
	s := Signal{Name: "rsi"}

	rsi := ind.RSI[last]
	if math.IsNaN(rsi) {
		s.Description = "RSI unavailable"
		return s
	}

	switch {
	case rsi >= 30 && rsi <= 70:
		s.Score = 1
		s.Detected = true
		switch {
		case rsi >= 40 && rsi <= 60:
			s.Description = fmt.Sprintf("RSI %.1f neutral", rsi)
		case rsi < 40:
			s.Description = fmt.Sprintf("RSI %.1f leaving oversold", rsi)
		default:
			s.Description = fmt.Sprintf("RSI %.1f momentum", rsi)
		}
	case rsi > 70:
		s.Description = fmt.Sprintf("RSI %.1f overbought", rsi)
	default:
		s.Description = fmt.Sprintf("RSI %.1f oversold", rsi)
	}
	return s
}

// macdSignal scores 2 for a bullish crossover with a positive
// histogram, 1 for the crossover alone, 0.5 when MACD merely sits
// above zero.
func macdSignal(ind *Indicators, last int) Signal {
	s := Signal{Name: "macd"}

	macd, sig, hist := ind.MACD[last], ind.MACDSignal[last], ind.MACDHist[last]
	if math.IsNaN(macd) || math.IsNaN(sig) {
		s.Description = "MACD unavailable"
		return s
	}

	switch {
	case macd > sig && hist > 0:
		s.Score = 2
		s.Detected = true
		s.Description = "MACD above signal, histogram positive"
	case macd > sig:
		s.Score = 1
		s.Detected = true
		s.Description = "MACD above signal"
	case macd > 0:
		s.Score = 0.5
		s.Detected = true
		s.Description = "MACD above zero"
	default:
		s.Description = "MACD bearish"
	}
	return s
}

// volumeSurge rewards turnover versus the 20-day average.
func volumeSurge(ind *Indicators, last int) Signal {
	s := Signal{Name: "volume"}

	ratio := ind.VolumeRatio[last]
	if math.IsNaN(ratio) {
		s.Description = "volume average unavailable"
		return s
	}

	switch {
	case ratio >= 2.0:
		s.Score = 1.5
		s.Detected = true
		s.Description = fmt.Sprintf("volume surge %.1fx", ratio)
	case ratio >= 1.5:
		s.Score = 1
		s.Detected = true
		s.Description = fmt.Sprintf("volume up %.1fx", ratio)
	case ratio >= 0.8:
		s.Score = 0.5
		s.Detected = true
		s.Description = fmt.Sprintf("volume normal %.1fx", ratio)
	default:
		s.Description = fmt.Sprintf("volume weak %.1fx", ratio)
	}
	return s
}

// bollingerBounce scores 1 for a rebound off the lower band, 0.5 for
// sitting near the lower band or above the middle.
func bollingerBounce(bars []Bar, ind *Indicators, last int) Signal {
	s := Signal{Name: "bollinger"}

	price := bars[last].Close
	lower, middle, upper := ind.BBLower[last], ind.BBMiddle[last], ind.BBUpper[last]
	if math.IsNaN(lower) || math.IsNaN(middle) || math.IsNaN(upper) {
		s.Description = "bands unavailable"
		return s
	}

	nearLower := price >= lower && price <= lower+(middle-lower)*0.3

	switch {
	case nearLower:
		touched := false
		from := last - 2
		if from < 0 {
			from = 0
		}
		for _, b := range bars[from : last+1] {
			if b.Low <= lower*1.02 {
				touched = true
				break
			}
		}
		if touched {
			s.Score = 1
			s.Detected = true
			s.Description = "rebound off lower band"
		} else {
			s.Score = 0.5
			s.Detected = true
			s.Description = "near lower band"
		}
	case price > middle:
		s.Score = 0.5
		s.Detected = true
		s.Description = "above middle band"
	case price >= upper*0.98:
		s.Description = "near upper band, overbought"
	default:
		s.Description = "inside bands"
	}
	return s
}
