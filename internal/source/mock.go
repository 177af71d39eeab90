package source

import (
	"time"

	"TrendRadar/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Data   map[string]model.Series
	Err    map[string]error
	Calls  map[string]int
	Window func(ticker string, start, end time.Time) // optional window spy
}

// NewMockFetcher creates an empty MockFetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Data:  make(map[string]model.Series),
		Err:   make(map[string]error),
		Calls: make(map[string]int),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyCloses(ticker string, start, end time.Time) (model.Series, error) {
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[ticker]++
	if m.Window != nil {
		m.Window(ticker, start, end)
	}
	if err, ok := m.Err[ticker]; ok {
		return model.Series{}, err
	}
	s, ok := m.Data[ticker]
	if !ok || s.Empty() {
		return model.Series{}, ErrNoData
	}
	// Honor the requested window like a real provider would.
	out := model.Series{}
	for i, d := range s.Dates {
		if !start.IsZero() && d.Before(model.Day(start)) {
			continue
		}
		if !end.IsZero() && d.After(model.Day(end)) {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Values = append(out.Values, s.Values[i])
	}
	if out.Empty() {
		return model.Series{}, ErrNoData
	}
	return out, nil
}
