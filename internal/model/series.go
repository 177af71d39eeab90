package model

import (
	"math"
	"time"
)

// Series is a date-indexed sequence of float64 observations.
// Dates are strictly ascending and unique. Values may be NaN (missing);
// persisted price caches never contain NaN.
type Series struct {
	Dates  []time.Time
	Values []float64
}

// NewSeries builds a Series from parallel date/value slices without copying.
func NewSeries(dates []time.Time, values []float64) Series {
	return Series{Dates: dates, Values: values}
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Dates) }

// Empty reports whether the series has no observations.
func (s Series) Empty() bool { return len(s.Dates) == 0 }

// FirstDate returns the earliest date. Only valid for non-empty series.
func (s Series) FirstDate() time.Time { return s.Dates[0] }

// LastDate returns the latest date. Only valid for non-empty series.
func (s Series) LastDate() time.Time { return s.Dates[len(s.Dates)-1] }

// At returns the value at the given date.
func (s Series) At(date time.Time) (float64, bool) {
	d := Day(date)
	for i, t := range s.Dates {
		if t.Equal(d) {
			return s.Values[i], true
		}
	}
	return 0, false
}

// DropNaN returns a copy with all NaN observations removed.
func (s Series) DropNaN() Series {
	out := Series{
		Dates:  make([]time.Time, 0, len(s.Dates)),
		Values: make([]float64, 0, len(s.Values)),
	}
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		out.Dates = append(out.Dates, s.Dates[i])
		out.Values = append(out.Values, v)
	}
	return out
}

// Clone returns a deep copy.
func (s Series) Clone() Series {
	out := Series{
		Dates:  make([]time.Time, len(s.Dates)),
		Values: make([]float64, len(s.Values)),
	}
	copy(out.Dates, s.Dates)
	copy(out.Values, s.Values)
	return out
}

// Day normalizes a timestamp to midnight UTC. All series dates pass through
// this so caches, fetches, and frames share one timezone-naive calendar.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
