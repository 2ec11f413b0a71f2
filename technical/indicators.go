// Package technical computes price and volume indicators over daily
// OHLCV bars and scores entry timing from them. All series functions
// return a slice aligned with the input; positions without enough
// history hold NaN.
package technical

import (
	"errors"
	"math"
	"time"
)

// MinBars is the least history the timing indicators need. Below it
// the 60-day average and the MACD signal line are mostly NaN and the
// score would be noise.
const MinBars = 60

// ErrInsufficientHistory means too few bars to score.
var ErrInsufficientHistory = errors.New("technical: insufficient price history")

// Bar is one day of trading.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// SMA is the simple moving average of values over period.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA is the exponential moving average with multiplier 2/(period+1),
// seeded from the SMA of the first period values.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	out[period-1] = seed / float64(period)

	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// RSI is the relative strength index with Wilder smoothing.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line, its signal line and the histogram for
// the usual fast/slow/signal EMA periods.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	line = nanSlice(len(closes))
	for i := range closes {
		if !math.IsNaN(fastEMA[i]) && !math.IsNaN(slowEMA[i]) {
			line[i] = fastEMA[i] - slowEMA[i]
		}
	}

	// The signal line smooths only the defined part of the MACD line.
	sig = nanSlice(len(closes))
	start := slow - 1
	if start < len(closes) {
		smoothed := EMA(line[start:], signal)
		copy(sig[start:], smoothed)
	}

	hist = nanSlice(len(closes))
	for i := range closes {
		if !math.IsNaN(line[i]) && !math.IsNaN(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}
	return line, sig, hist
}

// Bollinger returns the upper, middle and lower bands using a simple
// moving average and mult standard deviations.
func Bollinger(closes []float64, period int, mult float64) (upper, middle, lower []float64) {
	middle = SMA(closes, period)
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))

	for i := period - 1; i < len(closes); i++ {
		mean := middle[i]
		var variance float64
		for _, v := range closes[i-period+1 : i+1] {
			d := v - mean
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		upper[i] = mean + mult*sd
		lower[i] = mean - mult*sd
	}
	return upper, middle, lower
}

// Indicators bundles every series the timing score reads.
type Indicators struct {
	SMA5   []float64
	SMA20  []float64
	SMA60  []float64
	SMA120 []float64

	RSI []float64

	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64

	BBUpper  []float64
	BBMiddle []float64
	BBLower  []float64

	VolumeSMA   []float64
	VolumeRatio []float64
}

// Compute derives all indicator series from bars. It needs MinBars of
// history.
func Compute(bars []Bar) (*Indicators, error) {
	if len(bars) < MinBars {
		return nil, ErrInsufficientHistory
	}

	closes := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	ind := &Indicators{
		SMA5:   SMA(closes, 5),
		SMA20:  SMA(closes, 20),
		SMA60:  SMA(closes, 60),
		SMA120: SMA(closes, 120),
		RSI:    RSI(closes, 14),
	}
	ind.MACD, ind.MACDSignal, ind.MACDHist = MACD(closes, 12, 26, 9)
	ind.BBUpper, ind.BBMiddle, ind.BBLower = Bollinger(closes, 20, 2)

	ind.VolumeSMA = SMA(volumes, 20)
	ind.VolumeRatio = nanSlice(len(bars))
	for i := range bars {
		if avg := ind.VolumeSMA[i]; !math.IsNaN(avg) && avg > 0 {
			ind.VolumeRatio[i] = volumes[i] / avg
		}
	}
	return ind, nil
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
