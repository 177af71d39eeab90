package regime

import "time"

// MonthEnds returns the last date present in each calendar month of an
// ascending date index. These are the walk-forward retrain boundaries.
func MonthEnds(dates []time.Time) []time.Time {
	var out []time.Time
	for i, d := range dates {
		if i+1 == len(dates) {
			out = append(out, d)
			continue
		}
		next := dates[i+1]
		if d.Year() != next.Year() || d.Month() != next.Month() {
			out = append(out, d)
		}
	}
	return out
}

// NextMonthEnd returns the last calendar day of the month containing t.
// The retrain cadence is expressed as this explicit calendar rule rather
// than an opaque offset string so boundary derivation stays unit-testable.
func NextMonthEnd(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	firstOfNext := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1)
}
