package hybrid

import (
	"testing"

	"github.com/kscanlab/kscan/fscore"
	"github.com/kscanlab/kscan/technical"
)

func TestCombine(t *testing.T) {
	f := fscore.Score{Code: "005930", Name: "삼성전자", Total: 5}
	ts := technical.TimingScore{Score: 7.5, Rating: "A"}

	got := Combine(f, ts)

	// 5*10 + 7.5*5 = 87.5
	if got.Combined != 87.5 {
		t.Errorf("expected combined 87.5, got %v", got.Combined)
	}
	if got.Rating != "S" {
		t.Errorf("expected rating S, got %s", got.Rating)
	}
	if got.Code != "005930" || got.Name != "삼성전자" {
		t.Errorf("identity fields lost: %+v", got)
	}
}

func TestCombine_WeakBothWays(t *testing.T) {
	got := Combine(fscore.Score{Total: 2}, technical.TimingScore{Score: 1})

	if got.Combined != 25 {
		t.Errorf("expected 25, got %v", got.Combined)
	}
	if got.Rating != "D" {
		t.Errorf("expected rating D, got %s", got.Rating)
	}
}

func TestRatingBuckets(t *testing.T) {
	cases := []struct {
		combined float64
		want     string
	}{
		{110, "S"}, {80, "S"}, {79.9, "A"}, {65, "A"},
		{60, "B"}, {50, "B"}, {40, "C"}, {35, "C"}, {30, "D"}, {0, "D"},
	}
	for _, c := range cases {
		if got := rating(c.combined); got != c.want {
			t.Errorf("combined %v: expected %s, got %s", c.combined, c.want, got)
		}
	}
}

func TestCodecRoundtrip(t *testing.T) {
	s := Combine(fscore.Score{Code: "000660", Name: "SK하이닉스", Total: 6}, technical.TimingScore{Score: 8})
	c := Codec{}

	fields := c.Encode(s)
	if len(fields) != len(c.Header()) {
		t.Fatalf("encoded %d fields for %d columns", len(fields), len(c.Header()))
	}

	back, err := c.Decode(fields)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Name != s.Name || back.FScore != 6 || back.Combined != s.Combined || back.Rating != s.Rating {
		t.Errorf("roundtrip mismatch: %+v vs %+v", back, s)
	}
}
