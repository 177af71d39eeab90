package source

import (
	"errors"
	"time"

	"TrendRadar/internal/model"
)

// ErrNoData is returned when the provider yields nothing for the requested
// window. Whether the provider was broken or there were genuinely no trading
// days, the caller treats both the same: try the next candidate.
var ErrNoData = errors.New("source: no data returned for window")

// Fetcher fetches daily closing prices for one ticker over [start, end].
// A zero start means "from the earliest available"; a zero end means "up to
// the latest available". Implementations must not retry internally; retry
// and backoff policy belongs to the caller.
type Fetcher interface {
	FetchDailyCloses(ticker string, start, end time.Time) (model.Series, error)
	Name() string
}
