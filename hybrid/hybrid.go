// Package hybrid combines fundamental and timing scores into one
// ranking: a strong business that is also at a workable entry point
// outranks either strength alone.
package hybrid

import (
	"fmt"
	"strconv"

	"github.com/kscanlab/kscan/fscore"
	"github.com/kscanlab/kscan/technical"
)

// Weights applied when combining the two scales. The fundamental
// score runs 0..6 and timing 0..10, so weighting 10/5 keeps
// fundamentals dominant while letting timing break ties.
const (
	FScoreWeight = 10
	TimingWeight = 5
)

// DefaultMinFScore gates which companies are worth timing analysis.
const DefaultMinFScore = 4

// Score is the combined verdict for one company.
type Score struct {
	Code     string
	Name     string
	FScore   int
	Timing   float64
	Combined float64
	Rating   string
}

// Combine merges a fundamental score with a timing score.
func Combine(f fscore.Score, t technical.TimingScore) Score {
	combined := float64(f.Total)*FScoreWeight + t.Score*TimingWeight
	return Score{
		Code:     f.Code,
		Name:     f.Name,
		FScore:   f.Total,
		Timing:   t.Score,
		Combined: combined,
		Rating:   rating(combined),
	}
}

// rating buckets the combined 0..110 scale.
func rating(combined float64) string {
	switch {
	case combined >= 80:
		return "S"
	case combined >= 65:
		return "A"
	case combined >= 50:
		return "B"
	case combined >= 35:
		return "C"
	default:
		return "D"
	}
}

// Codec lays out a Score as checkpoint and results columns.
type Codec struct{}

func (Codec) Header() []string {
	return []string{"name", "fscore", "timing", "combined", "rating"}
}

func (Codec) Encode(s Score) []string {
	return []string{
		s.Name,
		strconv.Itoa(s.FScore),
		strconv.FormatFloat(s.Timing, 'f', 2, 64),
		strconv.FormatFloat(s.Combined, 'f', 2, 64),
		s.Rating,
	}
}

func (Codec) Decode(fields []string) (Score, error) {
	f, err := strconv.Atoi(fields[1])
	if err != nil {
		return Score{}, fmt.Errorf("hybrid: parse fscore: %w", err)
	}
	timing, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Score{}, fmt.Errorf("hybrid: parse timing: %w", err)
	}
	combined, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Score{}, fmt.Errorf("hybrid: parse combined: %w", err)
	}
	return Score{
		Name:     fields[0],
		FScore:   f,
		Timing:   timing,
		Combined: combined,
		Rating:   fields[4],
	}, nil
}
