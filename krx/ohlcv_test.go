package krx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const chartPayload = `[['날짜', '시가', '고가', '저가', '종가', '거래량', '외국인소진율'],
["20250826", 71000, 72500, 70800, 72300, 13126261, 53.1],
["20250827", 72300, 72400, 71200, 71500, 9846215, 53.0],
["20250828", 71500, 73000, 71400, 72900, 15231870, 53.2]]`

func TestDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "005930" || q.Get("timeframe") != "day" {
			t.Errorf("unexpected query %v", q)
		}
		fmt.Fprint(w, chartPayload)
	}))
	defer srv.Close()

	c := NewChartClient(WithChartBaseURL(srv.URL))

	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)

	bars, err := c.Daily(context.Background(), "005930", start, end)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}

	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}

	first := bars[0]
	if first.Date.Format("20060102") != "20250826" {
		t.Errorf("unexpected first date %v", first.Date)
	}
	if first.Open != 71000 || first.Close != 72300 || first.Volume != 13126261 {
		t.Errorf("unexpected first bar: %+v", first)
	}
}

func TestDaily_EmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[['날짜', '시가', '고가', '저가', '종가', '거래량', '외국인소진율']]`)
	}))
	defer srv.Close()

	c := NewChartClient(WithChartBaseURL(srv.URL))

	_, err := c.Daily(context.Background(), "000000", time.Now().AddDate(0, -4, 0), time.Now())
	if err == nil {
		t.Error("expected error for header-only payload")
	}
}

func TestParseChart_SkipsMalformedRows(t *testing.T) {
	payload := `[['날짜', '시가', '고가', '저가', '종가', '거래량', '기타'],
["20250826", 100, 110, 90, 105, 5000, 1],
["bad-date", 100, 110, 90, 105, 5000, 1],
["20250827", 100, 110, 90, 105, 5000, 1]]`

	bars, err := parseChart([]byte(payload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(bars) != 2 {
		t.Errorf("expected 2 valid bars, got %d", len(bars))
	}
}
