package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// corpCodeCacheTTL bounds how long a cached registry is trusted. The
// registry changes when companies list or delist, which is rare enough
// that a day is safe.
const corpCodeCacheTTL = 24 * time.Hour

// CorpMap maps 6-digit stock codes to 8-digit DART corp codes.
type CorpMap map[string]string

// Lookup returns the corp code for a stock code.
func (m CorpMap) Lookup(stockCode string) (string, bool) {
	code, ok := m[stockCode]
	return code, ok
}

type corpCodeEntry struct {
	CorpCode  string `xml:"corp_code" json:"corp_code"`
	CorpName  string `xml:"corp_name" json:"corp_name"`
	StockCode string `xml:"stock_code" json:"stock_code"`
}

type corpCodeFile struct {
	Entries []corpCodeEntry `xml:"list"`
}

// CorpCodes downloads the full corp code registry. The payload is a
// zip holding a single CORPCODE.xml; unlisted companies have a blank
// stock code and are dropped.
func (c *Client) CorpCodes(ctx context.Context) (CorpMap, error) {
	body, err := c.get(ctx, "/corpCode.xml", nil)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("dart: corp code archive: %w", err)
	}

	var xmlData []byte
	for _, f := range zr.File {
		if f.Name != "CORPCODE.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("dart: open CORPCODE.xml: %w", err)
		}
		xmlData, err = readAllAndClose(rc)
		if err != nil {
			return nil, fmt.Errorf("dart: read CORPCODE.xml: %w", err)
		}
		break
	}
	if xmlData == nil {
		return nil, fmt.Errorf("dart: CORPCODE.xml missing from archive")
	}

	var file corpCodeFile
	if err := xml.Unmarshal(xmlData, &file); err != nil {
		return nil, fmt.Errorf("dart: parse CORPCODE.xml: %w", err)
	}

	m := make(CorpMap, len(file.Entries))
	for _, e := range file.Entries {
		stock := strings.TrimSpace(e.StockCode)
		if stock == "" {
			continue
		}
		m[stock] = strings.TrimSpace(e.CorpCode)
	}

	c.log.Info("corp code registry loaded",
		zap.Int("listed", len(m)),
		zap.Int("total", len(file.Entries)),
	)
	return m, nil
}

type corpCache struct {
	FetchedAt time.Time `json:"fetched_at"`
	Codes     CorpMap   `json:"codes"`
}

// CachedCorpCodes returns the registry from a JSON cache file under
// dir, refetching when the cache is missing or older than a day. The
// registry download is a few megabytes, so every run hitting it fresh
// would waste most of its startup.
func (c *Client) CachedCorpCodes(ctx context.Context, dir string) (CorpMap, error) {
	path := filepath.Join(dir, "corp_codes.json")

	if data, err := os.ReadFile(path); err == nil {
		var cached corpCache
		if err := json.Unmarshal(data, &cached); err == nil &&
			time.Since(cached.FetchedAt) < corpCodeCacheTTL && len(cached.Codes) > 0 {
			c.log.Debug("corp codes from cache", zap.Int("listed", len(cached.Codes)))
			return cached.Codes, nil
		}
	}

	m, err := c.CorpCodes(ctx)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("dart: create cache dir: %w", err)
	}
	data, err := json.Marshal(corpCache{FetchedAt: time.Now(), Codes: m})
	if err != nil {
		return nil, fmt.Errorf("dart: encode corp cache: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("dart: write corp cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, fmt.Errorf("dart: replace corp cache: %w", err)
	}
	return m, nil
}

func readAllAndClose(rc io.ReadCloser) ([]byte, error) {
	defer rc.Close()
	return io.ReadAll(rc)
}
