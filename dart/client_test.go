package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func corpCodeZip(t *testing.T, xmlBody string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("CORPCODE.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte(xmlBody)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const corpCodeXML = `<?xml version="1.0" encoding="UTF-8"?>
<result>
  <list>
    <corp_code>00126380</corp_code>
    <corp_name>삼성전자</corp_name>
    <stock_code>005930</stock_code>
  </list>
  <list>
    <corp_code>00164742</corp_code>
    <corp_name>SK하이닉스</corp_name>
    <stock_code>000660</stock_code>
  </list>
  <list>
    <corp_code>99999999</corp_code>
    <corp_name>비상장회사</corp_name>
    <stock_code> </stock_code>
  </list>
</result>`

func TestCorpCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/corpCode.xml" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("crtfc_key") != "test-key" {
			t.Error("api key not forwarded")
		}
		w.Write(corpCodeZip(t, corpCodeXML))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	codes, err := c.CorpCodes(context.Background())
	if err != nil {
		t.Fatalf("corp codes: %v", err)
	}

	// The unlisted entry with a blank stock code is dropped.
	if len(codes) != 2 {
		t.Fatalf("expected 2 listed companies, got %d", len(codes))
	}

	got, ok := codes.Lookup("005930")
	if !ok || got != "00126380" {
		t.Errorf("expected 00126380 for 005930, got %q (%v)", got, ok)
	}
}

func TestCachedCorpCodes(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(corpCodeZip(t, corpCodeXML))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	dir := t.TempDir()

	for i := 0; i < 3; i++ {
		codes, err := c.CachedCorpCodes(context.Background(), dir)
		if err != nil {
			t.Fatalf("cached corp codes: %v", err)
		}
		if len(codes) != 2 {
			t.Fatalf("expected 2 companies, got %d", len(codes))
		}
	}

	if hits != 1 {
		t.Errorf("expected 1 upstream fetch, got %d", hits)
	}

	if _, err := filepath.Glob(filepath.Join(dir, "corp_codes.json")); err != nil {
		t.Errorf("cache file check: %v", err)
	}
}

func statementsJSON(fsDiv string) string {
	return fmt.Sprintf(`{
  "status": "000",
  "message": "정상",
  "list": [
    {"sj_div": "BS", "account_nm": "자산총계", "thstrm_amount": "455,905,980,000,000", "frmtrm_amount": "448,424,507,000,000"},
    {"sj_div": "BS", "account_nm": "부채총계", "thstrm_amount": "92,228,115,000,000", "frmtrm_amount": "93,674,903,000,000"},
    {"sj_div": "IS", "account_nm": "매출액", "thstrm_amount": "258,935,494,000,000", "frmtrm_amount": "302,231,360,000,000"},
    {"sj_div": "IS", "account_nm": "영업이익", "thstrm_amount": "6,566,976,000,000", "frmtrm_amount": "43,376,630,000,000"},
    {"sj_div": "IS", "account_nm": "당기순이익", "thstrm_amount": "15,487,100,000,000", "frmtrm_amount": "55,654,077,000,000"},
    {"sj_div": "%s", "account_nm": "기타", "thstrm_amount": "-", "frmtrm_amount": ""}
  ]
}`, fsDiv)
}

const noDataJSON = `{"status": "013", "message": "조회된 데이타가 없습니다."}`

func TestStatements_ConsolidatedFirst(t *testing.T) {
	var divs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		divs = append(divs, r.URL.Query().Get("fs_div"))
		fmt.Fprint(w, statementsJSON("BS"))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	accounts, err := c.Statements(context.Background(), "00126380", "2025", ReportAnnual)
	if err != nil {
		t.Fatalf("statements: %v", err)
	}

	if len(divs) != 1 || divs[0] != "CFS" {
		t.Errorf("expected single CFS request, got %v", divs)
	}
	if len(accounts) != 6 {
		t.Errorf("expected 6 accounts, got %d", len(accounts))
	}

	cur, ok := accounts[0].Current()
	if !ok || cur.String() != "455905980000000" {
		t.Errorf("unexpected parsed amount: %s (%v)", cur, ok)
	}
}

func TestStatements_FallsBackToStandalone(t *testing.T) {
	var divs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		div := r.URL.Query().Get("fs_div")
		divs = append(divs, div)
		if div == "CFS" {
			fmt.Fprint(w, noDataJSON)
			return
		}
		fmt.Fprint(w, statementsJSON("BS"))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	accounts, err := c.Statements(context.Background(), "00164742", "2025", ReportAnnual)
	if err != nil {
		t.Fatalf("statements: %v", err)
	}

	want := []string{"CFS", "OFS"}
	if len(divs) != 2 || divs[0] != want[0] || divs[1] != want[1] {
		t.Errorf("expected CFS then OFS, got %v", divs)
	}
	if len(accounts) == 0 {
		t.Error("expected accounts from the standalone filing")
	}
}

func TestStatements_NoDataEither(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, noDataJSON)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := c.Statements(context.Background(), "00000000", "2025", ReportAnnual)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestGetJSON_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "020", "message": "요청 제한을 초과하였습니다."}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := c.Statements(context.Background(), "00126380", "2025", ReportAnnual)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != "020" {
		t.Errorf("expected status 020, got %s", apiErr.Status)
	}
}

func TestGet_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Statements(ctx, "00126380", "2025", ReportAnnual)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func sharesJSON(total string) string {
	return fmt.Sprintf(`{
  "status": "000",
  "message": "정상",
  "list": [
    {"se": "보통주", "istc_totqy": "%s"},
    {"se": "우선주", "istc_totqy": "822,886,700"}
  ]
}`, total)
}

func TestFinancials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fnlttSinglAcntAll.json":
			fmt.Fprint(w, statementsJSON("BS"))
		case "/stockTotqySttus.json":
			fmt.Fprint(w, sharesJSON("5,969,782,550"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	f, err := c.Financials(context.Background(), "005930", "00126380", "2025")
	if err != nil {
		t.Fatalf("financials: %v", err)
	}

	if f.NetIncome.Current.String() != "15487100000000" {
		t.Errorf("unexpected net income %s", f.NetIncome.Current)
	}
	if f.TotalAssets.Previous.String() != "448424507000000" {
		t.Errorf("unexpected prior assets %s", f.TotalAssets.Previous)
	}
	if f.Shares.Current.String() != "5969782550" {
		t.Errorf("unexpected share count %s", f.Shares.Current)
	}

	// The fixture has no cash flow statement or liquidity accounts.
	if f.HasOperatingCF || f.HasCurrentRatio {
		t.Errorf("cash flow items should be absent: %+v", f)
	}
}

const fullStatementsJSON = `{
  "status": "000",
  "message": "정상",
  "list": [
    {"sj_div": "BS", "account_nm": "자산총계", "thstrm_amount": "1,000", "frmtrm_amount": "900"},
    {"sj_div": "BS", "account_nm": "부채총계", "thstrm_amount": "400", "frmtrm_amount": "450"},
    {"sj_div": "BS", "account_nm": "유동자산", "thstrm_amount": "600", "frmtrm_amount": "500"},
    {"sj_div": "BS", "account_nm": "유동부채", "thstrm_amount": "200", "frmtrm_amount": "250"},
    {"sj_div": "IS", "account_nm": "매출액", "thstrm_amount": "800", "frmtrm_amount": "700"},
    {"sj_div": "IS", "account_nm": "영업이익", "thstrm_amount": "120", "frmtrm_amount": "90"},
    {"sj_div": "IS", "account_nm": "당기순이익", "thstrm_amount": "100", "frmtrm_amount": "80"},
    {"sj_div": "CF", "account_nm": "영업활동으로 인한 현금흐름", "thstrm_amount": "150", "frmtrm_amount": "110"}
  ]
}`

func TestFinancials_CashFlowItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fnlttSinglAcntAll.json":
			fmt.Fprint(w, fullStatementsJSON)
		case "/stockTotqySttus.json":
			fmt.Fprint(w, sharesJSON("1,000"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	f, err := c.Financials(context.Background(), "005930", "00126380", "2025")
	if err != nil {
		t.Fatalf("financials: %v", err)
	}

	if !f.HasOperatingCF || f.OperatingCF.Current.String() != "150" {
		t.Errorf("cash flow not extracted: %+v", f)
	}
	if !f.HasCurrentRatio {
		t.Errorf("current ratio inputs not extracted: %+v", f)
	}
	if f.CurrentAssets.Previous.String() != "500" || f.CurrentLiabilities.Current.String() != "200" {
		t.Errorf("unexpected liquidity amounts: %+v", f)
	}
}

func TestFinancials_MissingAccountIsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Balance sheet only; no income statement accounts.
		fmt.Fprint(w, `{
  "status": "000",
  "message": "정상",
  "list": [
    {"sj_div": "BS", "account_nm": "자산총계", "thstrm_amount": "100", "frmtrm_amount": "90"},
    {"sj_div": "BS", "account_nm": "부채총계", "thstrm_amount": "50", "frmtrm_amount": "60"}
  ]
}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))

	_, err := c.Financials(context.Background(), "005930", "00126380", "2025")
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData for missing accounts, got %v", err)
	}
}
