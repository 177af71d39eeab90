package notifier

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"TrendRadar/internal/report"
)

// FormatDailySummary formats the latest scored day per index into a Telegram
// message. Indices without a single scored day are listed as missing.
func FormatDailySummary(rows []report.ScoreRow) string {
	latest := map[string]report.ScoreRow{}
	for _, r := range rows {
		if math.IsNaN(r.Score) {
			continue
		}
		if cur, ok := latest[r.Index]; !ok || r.Date.After(cur.Date) {
			latest[r.Index] = r
		}
	}
	indices := make([]string, 0, len(latest))
	for name := range latest {
		indices = append(indices, name)
	}
	sort.Strings(indices)

	var b strings.Builder
	b.WriteString("<b>TrendRadar daily scores</b>\n\n")
	if len(indices) == 0 {
		b.WriteString("No scored days available.\n")
		return b.String()
	}

	asOf := latest[indices[0]].Date
	for _, name := range indices[1:] {
		if d := latest[name].Date; d.After(asOf) {
			asOf = d
		}
	}
	b.WriteString(fmt.Sprintf("As of %s\n\n", asOf.Format("2006-01-02")))

	for _, name := range indices {
		r := latest[name]
		b.WriteString(fmt.Sprintf("<b>%s</b>: %.1f (%s)\n", name, r.Score, r.Label))
		if !math.IsNaN(r.RiskOffProb) {
			b.WriteString(fmt.Sprintf("  risk-off prob: %.0f%%\n", r.RiskOffProb*100))
		}
		if r.DivergenceState != "" && r.DivergenceState != "normal" {
			b.WriteString(fmt.Sprintf("  state: %s\n", r.DivergenceState))
		}
	}
	return b.String()
}

// FormatRunError formats a failed pipeline run for notification.
func FormatRunError(err error) string {
	return fmt.Sprintf("❌ <b>TrendRadar run failed</b>\n\n%v", err)
}
