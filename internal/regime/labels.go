package regime

import (
	"math"

	"TrendRadar/internal/calculator"
	"TrendRadar/internal/model"
)

// Labels builds the adverse-regime label series from the anchor index's
// prices: 1 when the forward return or the forward max drawdown over the
// horizon breaches its threshold, 0 otherwise, and NaN wherever the outcome
// window has not fully elapsed. Those trailing NaNs are exactly the rows
// the walk-forward fit must never train on.
func Labels(price []float64, cfg model.RiskModelConfig) []float64 {
	fwdRet := calculator.ForwardReturn(price, cfg.HorizonDays)
	fwdMDD := calculator.ForwardMaxDrawdown(price, cfg.HorizonDays)

	out := model.NaNs(len(price))
	for i := range price {
		if math.IsNaN(fwdRet[i]) || math.IsNaN(fwdMDD[i]) {
			continue
		}
		if fwdRet[i] < cfg.FwdReturnThreshold || fwdMDD[i] < cfg.FwdMaxDrawdownThreshold {
			out[i] = 1.0
		} else {
			out[i] = 0.0
		}
	}
	return out
}
