package notifier

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"TrendRadar/internal/report"
)

func TestFormatDailySummaryPicksLatestPerIndex(t *testing.T) {
	d1 := time.Date(2026, 1, 23, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC)
	rows := []report.ScoreRow{
		{Date: d1, Index: "nifty50", Score: 48.0, Label: "neutral_fair_vs_trend", DivergenceState: "normal"},
		{Date: d2, Index: "nifty50", Score: 62.5, Label: "bullish_overboughtish", DivergenceState: "riskoff_selloff", RiskOffProb: 0.42},
		{Date: d2, Index: "midcap100", Score: math.NaN(), Label: "insufficient_data"},
	}

	msg := FormatDailySummary(rows)

	assert.Contains(t, msg, "As of 2026-01-26")
	assert.Contains(t, msg, "62.5")
	assert.NotContains(t, msg, "48.0", "only the latest day per index is reported")
	assert.Contains(t, msg, "risk-off prob: 42%")
	assert.Contains(t, msg, "riskoff_selloff")
	assert.NotContains(t, msg, "midcap100", "indices with no scored day are dropped")
}

func TestFormatDailySummaryEmpty(t *testing.T) {
	msg := FormatDailySummary(nil)
	assert.Contains(t, msg, "No scored days available")
}
