package scoring

import (
	"math"

	"TrendRadar/internal/calculator"
	"TrendRadar/internal/model"
)

// Divergence-state values, most specific first in classification order.
const (
	StateNormal                = "normal"
	StateRiskoffCrashDay       = "riskoff_crash_day"
	StateRiskoffSelloff        = "riskoff_selloff"
	StateRiskoffBearBounce     = "riskoff_bear_bounce"
	StateDivergenceTrendUp     = "divergence_trendup_riskoff"
	StateRiskoffDowntrend      = "riskoff_downtrend"
	StateSelloffWithoutRiskoff = "selloff_without_riskoff"
	StateUnknown               = "unknown"
)

// DivergenceStates classifies each day's relationship between the risk-off
// composite and the anchor index's own action. The short-term direction
// filters keep a plain down day from being labeled a "divergence", and the
// bear-bounce detector separates a rebound after a heavy down day from a
// genuine equities-up/risk-off-up split.
func DivergenceStates(anchorFeat *model.Frame, riskoffComposite []float64) ([]string, []bool) {
	n := anchorFeat.Len()
	states := make([]string, n)
	flags := make([]bool, n)

	emaSlopeZ := anchorFeat.MustCol("ema_slope_z")
	emaRatioZ := anchorFeat.MustCol("ema_ratio_z")
	lr := anchorFeat.MustCol("lr")
	vol20 := anchorFeat.MustCol("vol20")

	for i := 0; i < n; i++ {
		states[i] = StateNormal
		roc := math.NaN()
		if riskoffComposite != nil {
			roc = riskoffComposite[i]
		}
		if math.IsNaN(roc) {
			states[i] = StateUnknown
			continue
		}

		trendUp := emaSlopeZ[i] > 0 && emaRatioZ[i] > 0
		dailySigma := vol20[i] / math.Sqrt(calculator.TradingDaysPerYear)
		equityDown := lr[i] < 0
		equityUp := lr[i] > 0
		heavyDown := lr[i] < -2.0*dailySigma || lr[i] < -0.02

		prevHeavyDown := false
		if i > 0 {
			prevSigma := vol20[i-1] / math.Sqrt(calculator.TradingDaysPerYear)
			prevHeavyDown = lr[i-1] < -2.0*prevSigma || lr[i-1] < -0.02
		}

		riskoffHigh := roc > 0.75
		riskoffLow := roc < -0.75

		bearBounce := riskoffHigh && equityUp && prevHeavyDown
		switch {
		case riskoffHigh && equityDown && heavyDown:
			states[i] = StateRiskoffCrashDay
		case riskoffHigh && equityDown:
			states[i] = StateRiskoffSelloff
		case bearBounce:
			states[i] = StateRiskoffBearBounce
		case riskoffHigh && !equityDown && trendUp:
			states[i] = StateDivergenceTrendUp
			flags[i] = true
		case riskoffHigh && !equityDown && !trendUp:
			states[i] = StateRiskoffDowntrend
		case riskoffLow && heavyDown:
			states[i] = StateSelloffWithoutRiskoff
		}
	}
	return states, flags
}
