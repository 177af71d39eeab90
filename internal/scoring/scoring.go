package scoring

import (
	"math"

	"TrendRadar/internal/calculator"
	"TrendRadar/internal/model"
)

// Config holds the score-assembly weights and caps.
type Config struct {
	TrendScoreMax   float64
	RiskPenaltyMax  float64
	ReversionAdjMax float64
	ImpulseAdjMax   float64
	NeutralShift    float64
}

// Label maps a 0-100 score to its market-state band.
func Label(score float64) string {
	switch {
	case math.IsNaN(score):
		return "insufficient_data"
	case score < 20:
		return "oversold_panic"
	case score < 40:
		return "bearish_below_trend"
	case score < 60:
		return "neutral_fair_vs_trend"
	case score < 80:
		return "bullish_overboughtish"
	default:
		return "euphoric_very_overbought"
	}
}

// Components builds the per-index trend score and the reversion/impulse
// adjustments from equity features. Bounded tanh transforms keep the
// outputs stable against outlier z-scores.
func Components(feat *model.Frame, cfg Config) *model.Frame {
	n := feat.Len()
	out := model.NewFrame(feat.Dates)

	emaSlopeZ := feat.MustCol("ema_slope_z")
	emaRatioZ := feat.MustCol("ema_ratio_z")
	d200Z := feat.MustCol("d200_z")
	ddZ := feat.MustCol("dd_z")
	mom20Z := feat.MustCol("mom20_z")
	mom5VsSigmaZ := feat.MustCol("mom5_vs_sigma_z")
	rsi := feat.MustCol("rsi")
	priceZ := feat.MustCol("price_z")

	trendRaw := model.NaNs(n)
	trendScore := model.NaNs(n)
	rsiUnit := model.NaNs(n)
	pzUnit := model.NaNs(n)
	reversionAdj := model.NaNs(n)
	impulseRaw := model.NaNs(n)
	impulseAdj := model.NaNs(n)

	for i := 0; i < n; i++ {
		tr := 0.35*emaSlopeZ[i] + 0.20*emaRatioZ[i] + 0.15*d200Z[i] - 0.15*ddZ[i] + 0.15*mom20Z[i]
		trendRaw[i] = tr
		if !math.IsNaN(tr) {
			trendScore[i] = (math.Tanh(tr/2.0) + 1.0) / 2.0 * cfg.TrendScoreMax
		}

		// RSI inverts: high RSI is overbought and reduces the score.
		rsiUnit[i] = calculator.Clamp((rsi[i]-50.0)/50.0, -1.0, 1.0)
		pzUnit[i] = calculator.Clamp(priceZ[i]/3.0, -1.0, 1.0)
		if !math.IsNaN(rsiUnit[i]) && !math.IsNaN(pzUnit[i]) {
			reversionAdj[i] = -(0.6*rsiUnit[i] + 0.4*pzUnit[i]) * cfg.ReversionAdjMax
		}

		ir := 0.6*mom5VsSigmaZ[i] + 0.4*mom20Z[i]
		impulseRaw[i] = ir
		if !math.IsNaN(ir) {
			impulseAdj[i] = math.Tanh(ir/2.0) * cfg.ImpulseAdjMax
		}
	}

	out.Set("trend_score", trendScore)
	out.Set("reversion_adj", reversionAdj)
	out.Set("impulse_adj", impulseAdj)
	out.Set("rsi_unit", rsiUnit)
	out.Set("pricez_unit", pzUnit)
	out.Set("trend_raw", trendRaw)
	out.Set("impulse_raw", impulseRaw)
	return out
}

// Assemble combines the components with the risk-off probability into the
// final 0-100 score. A missing probability contributes no penalty but is
// kept missing in the output so downstream readers can see the model gap.
// A strong risk-off backdrop damps bullish adjustments, so crash regimes
// read bearish while rebounds recover once the composite eases.
func Assemble(components *model.Frame, riskOffProb, riskoffComposite []float64, cfg Config) *model.Frame {
	n := components.Len()
	out := model.NewFrame(components.Dates)
	for _, name := range components.Names() {
		out.Set(name, components.MustCol(name))
	}

	trendScore := components.MustCol("trend_score")
	reversionAdj := components.MustCol("reversion_adj")
	impulseAdj := components.MustCol("impulse_adj")

	probCol := model.NaNs(n)
	riskContext := model.NaNs(n)
	riskPenalty := model.NaNs(n)
	revEff := model.NaNs(n)
	impEff := model.NaNs(n)
	score := model.NaNs(n)

	for i := 0; i < n; i++ {
		p := math.NaN()
		if riskOffProb != nil {
			p = riskOffProb[i]
		}
		probCol[i] = p

		pPenalty := p
		if math.IsNaN(pPenalty) {
			pPenalty = 0.0
		}
		riskPenalty[i] = pPenalty * cfg.RiskPenaltyMax

		rc := pPenalty
		if riskoffComposite != nil && !math.IsNaN(riskoffComposite[i]) {
			// Map the composite roughly: <=0.25 -> 0, >=1.25 -> 1.
			rc2 := calculator.Clamp(riskoffComposite[i]-0.25, 0.0, 1.0)
			if rc2 > rc {
				rc = rc2
			}
		}
		riskContext[i] = rc

		rev := reversionAdj[i]
		if !math.IsNaN(rev) {
			revEff[i] = math.Max(rev, 0)*(1.0-0.70*rc) + math.Min(rev, 0)
		}
		imp := impulseAdj[i]
		if !math.IsNaN(imp) {
			impEff[i] = math.Max(imp, 0)*(1.0-0.50*rc) + math.Min(imp, 0)
		}

		s := trendScore[i] + cfg.NeutralShift + revEff[i] + impEff[i] - riskPenalty[i]
		score[i] = calculator.Clamp(s, 0.0, 100.0)
	}

	out.Set("risk_off_prob", probCol)
	out.Set("risk_context", riskContext)
	out.Set("reversion_adj_eff", revEff)
	out.Set("impulse_adj_eff", impEff)
	out.Set("risk_penalty", riskPenalty)
	out.Set("score", score)
	return out
}
