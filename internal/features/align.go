package features

import (
	"math"
	"sort"
	"time"

	"TrendRadar/internal/model"
)

// Align places the named series on one union calendar, applying a limited
// forward fill (at most maxForwardFillDays consecutive rows) across holidays
// and provider gaps. Whatever the fill limit cannot bridge stays missing.
func Align(seriesMap map[string]model.Series, maxForwardFillDays int) *model.Frame {
	seen := make(map[time.Time]struct{})
	for _, s := range seriesMap {
		for _, d := range s.Dates {
			seen[model.Day(d)] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	pos := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		pos[d] = i
	}

	names := make([]string, 0, len(seriesMap))
	for name := range seriesMap {
		names = append(names, name)
	}
	sort.Strings(names)

	frame := model.NewFrame(dates)
	for _, name := range names {
		s := seriesMap[name]
		col := model.NaNs(len(dates))
		for i, d := range s.Dates {
			col[pos[model.Day(d)]] = s.Values[i]
		}
		if maxForwardFillDays > 0 {
			forwardFill(col, maxForwardFillDays)
		}
		frame.Set(name, col)
	}
	return frame
}

func forwardFill(col []float64, limit int) {
	run := 0
	last := math.NaN()
	for i, v := range col {
		if !math.IsNaN(v) {
			last = v
			run = 0
			continue
		}
		run++
		if run <= limit && !math.IsNaN(last) {
			col[i] = last
		}
	}
}
