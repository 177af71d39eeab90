package regime

import (
	"log"
	"math"
	"time"

	"TrendRadar/internal/model"
)

// WalkForward produces a daily risk-off probability for every date in the
// feature frame's index, refitting at month-end boundaries and predicting
// only forward. Nothing dated after a boundary, and no row whose label's
// outcome window has not elapsed, ever enters training.
//
// Gated boundaries (insufficient history, single-class labels, failed fit)
// leave their predict window NaN. The gap is deliberate: a consumer must be
// able to tell "no signal available" from "signal computed", so a skipped
// boundary does not roll the previous model forward.
func WalkForward(x *model.Frame, y []float64, cfg model.RiskModelConfig) []float64 {
	idx := x.Dates
	probs := model.NaNs(len(idx))
	if len(idx) == 0 {
		return probs
	}

	boundaries := MonthEnds(idx)
	rows := make([][]float64, len(idx))
	for i := range idx {
		rows[i] = x.Row(i)
	}

	for b, trainEnd := range boundaries {
		nextEnd := idx[len(idx)-1]
		if b+1 < len(boundaries) {
			nextEnd = boundaries[b+1]
		}

		// Predict window: (trainEnd, nextEnd]
		lo, hi := -1, -1
		for i, d := range idx {
			if d.After(trainEnd) && !d.After(nextEnd) {
				if lo < 0 {
					lo = i
				}
				hi = i
			}
		}
		if lo < 0 {
			continue
		}

		var (
			trainX [][]float64
			trainY []float64
		)
		earliest := time.Time{}
		seen0, seen1 := false, false
		for i, d := range idx {
			if d.After(trainEnd) || math.IsNaN(y[i]) {
				continue
			}
			if earliest.IsZero() {
				earliest = d
			}
			label := 0.0
			if y[i] > 0.5 {
				label = 1.0
				seen1 = true
			} else {
				seen0 = true
			}
			trainX = append(trainX, rows[i])
			trainY = append(trainY, label)
		}

		if !hasMinHistory(earliest, trainEnd, cfg.MinTrainYears) {
			continue
		}
		if !seen0 || !seen1 {
			// A classifier cannot be fit on a single class.
			continue
		}

		mdl, err := fitLogistic(trainX, trainY, cfg.RegularizationC)
		if err != nil {
			log.Printf("[WARN] risk model fit at %s skipped: %v", trainEnd.Format("2006-01-02"), err)
			continue
		}
		for i := lo; i <= hi; i++ {
			probs[i] = mdl.predictProba(rows[i])
		}
	}
	return probs
}

// hasMinHistory checks that the earliest training date sits at least
// minYears (in 365.25-day years) before the boundary.
func hasMinHistory(earliest, trainEnd time.Time, minYears int) bool {
	if earliest.IsZero() {
		return false
	}
	need := time.Duration(float64(minYears) * 365.25 * 24 * float64(time.Hour))
	return !earliest.After(trainEnd.Add(-need))
}
