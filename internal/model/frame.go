package model

import (
	"math"
	"time"
)

// Frame is a date-indexed table of named float64 columns. All columns share
// the frame's date index; missing cells are NaN. Column order is preserved.
type Frame struct {
	Dates []time.Time
	names []string
	cols  map[string][]float64
}

// NewFrame creates an empty frame over the given date index.
func NewFrame(dates []time.Time) *Frame {
	return &Frame{Dates: dates, cols: make(map[string][]float64)}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Dates) }

// Names returns the column names in insertion order.
func (f *Frame) Names() []string { return f.names }

// Set adds or replaces a column. The slice length must match the index.
func (f *Frame) Set(name string, values []float64) {
	if len(values) != len(f.Dates) {
		panic("model: column length does not match frame index")
	}
	if _, ok := f.cols[name]; !ok {
		f.names = append(f.names, name)
	}
	f.cols[name] = values
}

// Col returns the named column, or false if it does not exist.
func (f *Frame) Col(name string) ([]float64, bool) {
	c, ok := f.cols[name]
	return c, ok
}

// MustCol returns the named column, panicking if absent. Used internally
// where the column was set by the same package.
func (f *Frame) MustCol(name string) []float64 {
	c, ok := f.cols[name]
	if !ok {
		panic("model: missing column " + name)
	}
	return c
}

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Row returns the values of all columns at row i, in column order.
func (f *Frame) Row(i int) []float64 {
	out := make([]float64, len(f.names))
	for j, n := range f.names {
		out[j] = f.cols[n][i]
	}
	return out
}

// Select returns a new frame over the same index containing only the named
// columns. Panics if a name is absent.
func (f *Frame) Select(names ...string) *Frame {
	out := NewFrame(f.Dates)
	for _, n := range names {
		out.Set(n, f.MustCol(n))
	}
	return out
}

// NaNs returns a fresh all-NaN column sized to the given length.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
