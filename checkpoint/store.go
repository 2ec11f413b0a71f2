// Package checkpoint persists per-key scan progress to dated CSV files
// so an interrupted run can resume without repeating finished work.
//
// A store keeps one checkpoint file per kind and day. Flush replaces the
// file atomically via a temp file and rename, so a crash mid-write never
// leaves a truncated checkpoint behind.
package checkpoint

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/kscanlab/kscan/pool"
)

// Record is one key's persisted outcome. Only successes and terminal
// failures are written; retryable failures are left out so the next run
// picks them up again.
type Record[V any] struct {
	Key      string
	Status   pool.Status
	Value    V
	Attempts int
	Reason   string
	At       time.Time
}

// Store reads and writes the checkpoint file for one run kind.
type Store[V any] struct {
	dir   string
	kind  string
	codec Codec[V]
	now   func() time.Time
}

// NewStore returns a store writing <kind>_checkpoint_<YYYYMMDD>.csv
// under dir. The directory is created on the first flush.
func NewStore[V any](dir, kind string, codec Codec[V]) *Store[V] {
	return &Store[V]{dir: dir, kind: kind, codec: codec, now: time.Now}
}

// Path returns today's checkpoint file path for this store's kind.
func (s *Store[V]) Path() string {
	name := fmt.Sprintf("%s_checkpoint_%s.csv", s.kind, s.now().Format("20060102"))
	return filepath.Join(s.dir, name)
}

func (s *Store[V]) header() []string {
	return append([]string{"key", "status", "attempts", "checked_at", "reason"}, s.codec.Header()...)
}

// Flush writes all completed records to the checkpoint file, replacing
// any previous contents. Rows are sorted by key so diffs between
// flushes stay readable. Retryable records in the map are skipped.
func (s *Store[V]) Flush(records map[string]Record[V]) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	keys := make([]string, 0, len(records))
	for k, rec := range records {
		if rec.Status == pool.StatusSuccess || rec.Status == pool.StatusTerminal {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	tmp, err := os.CreateTemp(s.dir, s.kind+"_checkpoint_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(s.header()); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint header: %w", err)
	}

	valueCols := len(s.codec.Header())
	for _, k := range keys {
		rec := records[k]
		row := []string{
			rec.Key,
			rec.Status.String(),
			strconv.Itoa(rec.Attempts),
			rec.At.Format(time.RFC3339),
			rec.Reason,
		}
		if rec.Status == pool.StatusSuccess {
			row = append(row, s.codec.Encode(rec.Value)...)
		} else {
			row = append(row, make([]string, valueCols)...)
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write checkpoint row %q: %w", k, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, s.Path()); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Load reads today's checkpoint file. A missing file is not an error;
// it returns an empty map so a fresh run starts from nothing.
func (s *Store[V]) Load() (map[string]Record[V], error) {
	f, err := os.Open(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Record[V]{}, nil
		}
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(s.header())

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", s.Path(), err)
	}
	if len(rows) == 0 {
		return map[string]Record[V]{}, nil
	}

	records := make(map[string]Record[V], len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := s.decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("checkpoint %s row %d: %w", s.Path(), i+2, err)
		}
		records[rec.Key] = rec
	}
	return records, nil
}

func (s *Store[V]) decodeRow(row []string) (Record[V], error) {
	var rec Record[V]
	rec.Key = row[0]

	switch row[1] {
	case pool.StatusSuccess.String():
		rec.Status = pool.StatusSuccess
	case pool.StatusTerminal.String():
		rec.Status = pool.StatusTerminal
	default:
		return rec, fmt.Errorf("unknown status %q", row[1])
	}

	attempts, err := strconv.Atoi(row[2])
	if err != nil {
		return rec, fmt.Errorf("parse attempts: %w", err)
	}
	rec.Attempts = attempts

	at, err := time.Parse(time.RFC3339, row[3])
	if err != nil {
		return rec, fmt.Errorf("parse checked_at: %w", err)
	}
	rec.At = at
	rec.Reason = row[4]

	if rec.Status == pool.StatusSuccess {
		v, err := s.codec.Decode(row[5:])
		if err != nil {
			return rec, fmt.Errorf("decode value for %q: %w", rec.Key, err)
		}
		rec.Value = v
	}
	return rec, nil
}

// WriteResults writes successful values to a timestamped results file,
// <kind>_results_<YYYYMMDD_HHMMSS>.csv, and returns its path. Unlike
// the checkpoint it carries value columns only, for downstream use.
// Rows are ordered best-first by rank, with ties and a nil rank
// falling back to key order.
func (s *Store[V]) WriteResults(records map[string]Record[V], rank func(a, b V) bool) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	keys := make([]string, 0, len(records))
	for k, rec := range records {
		if rec.Status == pool.StatusSuccess {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if rank != nil {
			a, b := records[keys[i]].Value, records[keys[j]].Value
			if rank(a, b) {
				return true
			}
			if rank(b, a) {
				return false
			}
		}
		return keys[i] < keys[j]
	})

	name := fmt.Sprintf("%s_results_%s.csv", s.kind, s.now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create results file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"key"}, s.codec.Header()...)); err != nil {
		return "", fmt.Errorf("write results header: %w", err)
	}
	for _, k := range keys {
		rec := records[k]
		if err := w.Write(append([]string{rec.Key}, s.codec.Encode(rec.Value)...)); err != nil {
			return "", fmt.Errorf("write results row %q: %w", k, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush results: %w", err)
	}
	return path, nil
}
