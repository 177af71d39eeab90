package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes a review workbook: a Summary sheet with the latest day
// per index and a Scores sheet with the full long-form table.
func WriteXLSX(path string, rows []ScoreRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, rows); err != nil {
		return err
	}
	if err := writeScoresSheet(f, rows); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, rows []ScoreRow) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}

	latest := map[string]ScoreRow{}
	for _, r := range rows {
		if cur, ok := latest[r.Index]; !ok || r.Date.After(cur.Date) {
			latest[r.Index] = r
		}
	}
	indices := make([]string, 0, len(latest))
	for name := range latest {
		indices = append(indices, name)
	}
	sort.Strings(indices)

	header := []any{"index", "date", "score", "label", "risk_off_prob", "riskoff_composite", "divergence_state"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("summary header: %w", err)
	}
	for i, name := range indices {
		r := latest[name]
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.Index, r.Date.Format("2006-01-02"),
			cellValue(r.Score), r.Label,
			cellValue(r.RiskOffProb), cellValue(r.RiskoffComposite),
			r.DivergenceState,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("summary row %s: %w", name, err)
		}
	}
	return nil
}

func writeScoresSheet(f *excelize.File, rows []ScoreRow) error {
	const sheet = "Scores"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("new sheet %s: %w", sheet, err)
	}

	sorted := make([]ScoreRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].Index < sorted[j].Index
	})

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}
	header := make([]any, len(scoresHeader))
	for i, h := range scoresHeader {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("scores header: %w", err)
	}
	for i, r := range sorted {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.Date.Format("2006-01-02"),
			cellValue(r.TrendScore), cellValue(r.ReversionAdj),
			cellValue(r.RSIUnit), cellValue(r.PriceZUnit), cellValue(r.TrendRaw),
			cellValue(r.RiskOffProb), cellValue(r.RiskPenalty), cellValue(r.Score),
			r.Label,
			cellValue(r.RiskoffComposite), r.DivergenceState, r.DivergenceFlag,
			r.Index,
			cellValue(r.ImpulseAdj), cellValue(r.ImpulseRaw), cellValue(r.RiskContext),
			cellValue(r.ReversionAdjEff), cellValue(r.ImpulseAdjEff),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("scores row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush scores sheet: %w", err)
	}
	return nil
}

// cellValue keeps missing values as blank cells instead of NaN text.
func cellValue(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
