package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"TrendRadar/internal/model"
)

// ScoreRow is one index-day of the long-form scores output.
type ScoreRow struct {
	Date             time.Time
	Index            string
	TrendScore       float64
	ReversionAdj     float64
	RSIUnit          float64
	PriceZUnit       float64
	TrendRaw         float64
	RiskOffProb      float64
	RiskPenalty      float64
	Score            float64
	Label            string
	RiskoffComposite float64
	DivergenceState  string
	DivergenceFlag   bool
	ImpulseAdj       float64
	ImpulseRaw       float64
	RiskContext      float64
	ReversionAdjEff  float64
	ImpulseAdjEff    float64
}

// scoresHeader keeps the column order stable so spreadsheet references do
// not shift between runs; diagnostics sit to the far right.
var scoresHeader = []string{
	"date",
	"trend_score", "reversion_adj", "rsi_unit", "pricez_unit", "trend_raw",
	"risk_off_prob", "risk_penalty", "score", "label",
	"riskoff_composite", "divergence_state", "divergence_flag", "index",
	"impulse_adj", "impulse_raw", "risk_context", "reversion_adj_eff", "impulse_adj_eff",
}

func (r ScoreRow) record() []string {
	return []string{
		r.Date.Format("2006-01-02"),
		formatValue(r.TrendScore), formatValue(r.ReversionAdj),
		formatValue(r.RSIUnit), formatValue(r.PriceZUnit), formatValue(r.TrendRaw),
		formatValue(r.RiskOffProb), formatValue(r.RiskPenalty), formatValue(r.Score),
		r.Label,
		formatValue(r.RiskoffComposite), r.DivergenceState, strconv.FormatBool(r.DivergenceFlag),
		r.Index,
		formatValue(r.ImpulseAdj), formatValue(r.ImpulseRaw), formatValue(r.RiskContext),
		formatValue(r.ReversionAdjEff), formatValue(r.ImpulseAdjEff),
	}
}

// WriteScoresCSV writes the long-form scores table sorted by date then index.
func WriteScoresCSV(path string, rows []ScoreRow) error {
	sorted := make([]ScoreRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Index < sorted[j].Index
	})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(scoresHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range sorted {
		if err := w.Write(r.record()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// WriteFrameCSV writes a frame as Date plus one column per name. Missing
// values become empty cells.
func WriteFrameCSV(path string, frame *model.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	names := frame.Names()
	w := csv.NewWriter(f)
	header := append([]string{"Date"}, names...)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(header))
	for i := 0; i < frame.Len(); i++ {
		record[0] = frame.Dates[i].Format("2006-01-02")
		for j, name := range names {
			record[j+1] = formatValue(frame.MustCol(name)[i])
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
