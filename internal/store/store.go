package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"TrendRadar/internal/model"
)

const dateLayout = "2006-01-02"

// MalformedCacheError reports a cache record that exists but cannot be
// parsed. It is deliberately not folded into "absent": silently discarding
// history would mask data loss.
type MalformedCacheError struct {
	Ticker string
	Path   string
	Reason string
}

func (e *MalformedCacheError) Error() string {
	return fmt.Sprintf("malformed cache for %s at %s: %s", e.Ticker, e.Path, e.Reason)
}

// Store owns one append-only closing-price cache record per ticker, kept as
// a Date,Close CSV under Dir. Each record has a single writer: the design
// assumes no concurrent runs against the same cache directory.
type Store struct {
	Dir string
}

// NewStore creates the cache directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Path returns the cache file path for a ticker.
func (s *Store) Path(ticker string) string {
	return filepath.Join(s.Dir, SafeFilename(ticker)+".csv")
}

// Read loads the cached series for a ticker in ascending date order.
// A missing file returns ok=false; a present but unparseable file returns
// a *MalformedCacheError.
func (s *Store) Read(ticker string) (model.Series, bool, error) {
	path := s.Path(ticker)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return model.Series{}, false, nil
	}
	if err != nil {
		return model.Series{}, false, fmt.Errorf("open cache %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return model.Series{}, false, &MalformedCacheError{Ticker: ticker, Path: path, Reason: err.Error()}
	}
	if len(rows) == 0 || len(rows[0]) != 2 || rows[0][0] != "Date" || rows[0][1] != "Close" {
		return model.Series{}, false, &MalformedCacheError{Ticker: ticker, Path: path, Reason: "missing Date,Close header"}
	}

	series := model.Series{}
	var prev time.Time
	for i, row := range rows[1:] {
		if len(row) != 2 {
			return model.Series{}, false, &MalformedCacheError{Ticker: ticker, Path: path, Reason: fmt.Sprintf("row %d: want 2 fields, got %d", i+2, len(row))}
		}
		d, err := time.ParseInLocation(dateLayout, row[0], time.UTC)
		if err != nil {
			return model.Series{}, false, &MalformedCacheError{Ticker: ticker, Path: path, Reason: fmt.Sprintf("row %d: bad date %q", i+2, row[0])}
		}
		v, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return model.Series{}, false, &MalformedCacheError{Ticker: ticker, Path: path, Reason: fmt.Sprintf("row %d: bad close %q", i+2, row[1])}
		}
		if i > 0 && !d.After(prev) {
			return model.Series{}, false, &MalformedCacheError{Ticker: ticker, Path: path, Reason: fmt.Sprintf("row %d: dates not strictly ascending", i+2)}
		}
		prev = d
		series.Dates = append(series.Dates, d)
		series.Values = append(series.Values, v)
	}
	return series, true, nil
}

// MergeAndWrite unions existing and incoming over the date axis and commits
// the result as the ticker's cache record. Where both define a value for the
// same date, the incoming value wins: the newer fetch is authoritative, since
// a provider may restate a recent bar. The merged record is written via a
// temp-file rename so an interrupted run leaves the prior record untouched.
func (s *Store) MergeAndWrite(ticker string, existing model.Series, incoming model.Series) (model.Series, error) {
	merged := Merge(existing, incoming)
	if err := s.write(ticker, merged); err != nil {
		return model.Series{}, err
	}
	return merged, nil
}

// Merge unions two series by date, incoming winning on conflicts. The result
// is sorted ascending with a duplicate-free index.
func Merge(existing, incoming model.Series) model.Series {
	byDate := make(map[time.Time]float64, existing.Len()+incoming.Len())
	for i, d := range existing.Dates {
		byDate[model.Day(d)] = existing.Values[i]
	}
	for i, d := range incoming.Dates {
		byDate[model.Day(d)] = incoming.Values[i]
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := model.Series{Dates: dates, Values: make([]float64, len(dates))}
	for i, d := range dates {
		out.Values[i] = byDate[d]
	}
	return out
}

func (s *Store) write(ticker string, series model.Series) error {
	path := s.Path(ticker)
	tmp, err := os.CreateTemp(s.Dir, SafeFilename(ticker)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"Date", "Close"}); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache header: %w", err)
	}
	for i, d := range series.Dates {
		rec := []string{d.Format(dateLayout), strconv.FormatFloat(series.Values[i], 'g', -1, 64)}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("write cache row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("commit cache %s: %w", path, err)
	}
	return nil
}

// SafeFilename maps a ticker to a filesystem-safe identifier: alphanumerics,
// dash and underscore survive, everything else becomes an underscore.
func SafeFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
