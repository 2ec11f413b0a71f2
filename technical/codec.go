package technical

import (
	"fmt"
	"strconv"
)

// Result pairs a timing score with the stock it belongs to, shaped for
// checkpointing.
type Result struct {
	Code string
	Name string
	TimingScore
}

// Codec lays out a Result as checkpoint and results columns. Decoding
// restores per-signal scores but not their descriptions.
type Codec struct{}

var signalOrder = []string{
	"golden_cross", "ma_alignment", "rsi", "macd", "volume", "bollinger",
}

func (Codec) Header() []string {
	return append([]string{"name", "score", "rating"}, signalOrder...)
}

func (Codec) Encode(r Result) []string {
	fields := []string{
		r.Name,
		strconv.FormatFloat(r.Score, 'f', 2, 64),
		r.Rating,
	}
	byName := map[string]Signal{}
	for _, s := range r.Signals {
		byName[s.Name] = s
	}
	for _, name := range signalOrder {
		fields = append(fields, strconv.FormatFloat(byName[name].Score, 'f', 1, 64))
	}
	return fields
}

func (Codec) Decode(fields []string) (Result, error) {
	score, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Result{}, fmt.Errorf("technical: parse score: %w", err)
	}

	r := Result{
		Name: fields[0],
		TimingScore: TimingScore{
			Score:  score,
			Rating: fields[2],
		},
	}
	for i, name := range signalOrder {
		v, err := strconv.ParseFloat(fields[3+i], 64)
		if err != nil {
			return Result{}, fmt.Errorf("technical: parse %s: %w", name, err)
		}
		r.Signals = append(r.Signals, Signal{Name: name, Score: v, Detected: v > 0})
	}
	return r, nil
}
