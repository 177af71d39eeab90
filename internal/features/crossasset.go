package features

import (
	"math"

	"TrendRadar/internal/calculator"
	"TrendRadar/internal/model"
)

// CrossAsset builds the shared risk-off feature frame from aligned prices.
// It expects logical columns like eq_nifty50, ro_gold, ro_silver, ro_usdinr,
// ro_vix, y_us10y, y_us3m; any missing column simply drops its features,
// since optional series are allowed to be absent.
func CrossAsset(aligned *model.Frame, zWindow int) *model.Frame {
	n := aligned.Len()
	out := model.NewFrame(aligned.Dates)
	z := func(x []float64) []float64 { return calculator.ZScore(x, zWindow) }

	nifty, haveNifty := aligned.Col("eq_nifty50")
	midcap, haveMidcap := aligned.Col("eq_midcap100")
	smallcap, haveSmallcap := aligned.Col("eq_smallcap100")
	gold, haveGold := aligned.Col("ro_gold")
	silver, haveSilver := aligned.Col("ro_silver")
	usdinr, haveUSDINR := aligned.Col("ro_usdinr")
	vix, haveVIX := aligned.Col("ro_vix")
	us10y, haveUS10Y := aligned.Col("y_us10y")
	us3m, haveUS3M := aligned.Col("y_us3m")

	// Intra-equity relative strength: divergence inside equities.
	if haveNifty && haveMidcap {
		rs := logSpread(midcap, nifty)
		out.Set("midcap_vs_nifty", rs)
		out.Set("midcap_vs_nifty_z", z(rs))
		out.Set("midcap_vs_nifty_mom60_z", z(calculator.Diff(rs, 60)))
	}
	if haveNifty && haveSmallcap {
		rs := logSpread(smallcap, nifty)
		out.Set("smallcap_vs_nifty", rs)
		out.Set("smallcap_vs_nifty_z", z(rs))
		out.Set("smallcap_vs_nifty_mom60_z", z(calculator.Diff(rs, 60)))
	}
	if haveNifty && haveGold {
		rs := logSpread(gold, nifty)
		out.Set("gold_vs_nifty", rs)
		out.Set("gold_vs_nifty_z", z(rs))
		out.Set("gold_vs_nifty_mom60_z", z(calculator.Diff(rs, 60)))
	}
	if haveGold && haveSilver {
		rs := logSpread(silver, gold)
		out.Set("silver_vs_gold", rs)
		out.Set("silver_vs_gold_z", z(rs))
		out.Set("silver_vs_gold_mom60_z", z(calculator.Diff(rs, 60)))
	}

	if haveUSDINR {
		lfx := logOf(usdinr)
		mom20 := calculator.Diff(lfx, 20)
		vol20 := model.NaNs(n)
		sd := calculator.RollingStd(calculator.Diff(lfx, 1), 20)
		for i := range sd {
			vol20[i] = sd[i] * math.Sqrt(calculator.TradingDaysPerYear)
		}
		out.Set("usdinr_mom20", mom20)
		out.Set("usdinr_vol20", vol20)
		out.Set("usdinr_mom20_z", z(mom20))
		out.Set("usdinr_vol20_z", z(vol20))
		out.Set("usdinr_mom60_z", z(calculator.Diff(lfx, 60)))
	}

	if haveVIX {
		out.Set("vix_level_z", z(vix))
		out.Set("vix_chg20_z", z(calculator.PctChange(vix, 20)))
		out.Set("vix_chg60_z", z(calculator.PctChange(vix, 60)))
	}

	if haveUS10Y {
		out.Set("us10y_level_z", z(us10y))
		out.Set("us10y_chg20_z", z(calculator.Diff(us10y, 20)))
		out.Set("us10y_chg60_z", z(calculator.Diff(us10y, 60)))
	}
	if haveUS10Y && haveUS3M {
		slope := model.NaNs(n)
		for i := 0; i < n; i++ {
			if math.IsNaN(us10y[i]) || math.IsNaN(us3m[i]) {
				continue
			}
			slope[i] = us10y[i] - us3m[i]
		}
		out.Set("us_curve_slope", slope)
		out.Set("us_curve_slope_z", z(slope))
	}

	// Rolling correlations vs Nifty returns: regime/divergence signal.
	if haveNifty {
		niftyLR := calculator.LogReturns(nifty)
		if haveGold {
			c := calculator.RollingCorr(niftyLR, calculator.LogReturns(gold), 60)
			out.Set("corr60_nifty_gold", c)
			out.Set("corr60_nifty_gold_z", z(c))
		}
		if haveUSDINR {
			c := calculator.RollingCorr(niftyLR, calculator.LogReturns(usdinr), 60)
			out.Set("corr60_nifty_usdinr", c)
			out.Set("corr60_nifty_usdinr_z", z(c))
		}
		if haveVIX {
			c := calculator.RollingCorr(niftyLR, calculator.PctChange(vix, 1), 60)
			out.Set("corr60_nifty_vix", c)
			out.Set("corr60_nifty_vix_z", z(c))
		}
		if haveUS10Y {
			c := calculator.RollingCorr(niftyLR, calculator.Diff(us10y, 1), 60)
			out.Set("corr60_nifty_us10y", c)
			out.Set("corr60_nifty_us10y_z", z(c))
		}
	}

	// Risk-off composite: breadth-style mean of the available z-terms.
	// Sign convention: higher means more risk-off, so curve steepness and
	// small/mid-cap leadership flip sign.
	type term struct {
		name string
		flip bool
	}
	terms := []term{
		{"gold_vs_nifty_z", false},
		{"gold_vs_nifty_mom60_z", false},
		{"usdinr_mom20_z", false},
		{"usdinr_mom60_z", false},
		{"vix_chg20_z", false},
		{"vix_chg60_z", false},
		{"us10y_chg20_z", false},
		{"us10y_chg60_z", false},
		{"us_curve_slope_z", true},
		{"smallcap_vs_nifty_mom60_z", true},
		{"midcap_vs_nifty_mom60_z", true},
	}
	composite := model.NaNs(n)
	for i := 0; i < n; i++ {
		sum, count := 0.0, 0
		for _, t := range terms {
			col, ok := out.Col(t.name)
			if !ok || math.IsNaN(col[i]) {
				continue
			}
			v := col[i]
			if t.flip {
				v = -v
			}
			sum += v
			count++
		}
		if count > 0 {
			composite[i] = sum / float64(count)
		}
	}
	out.Set("riskoff_composite", composite)

	return out
}

func logSpread(a, b []float64) []float64 {
	out := model.NaNs(len(a))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) || a[i] <= 0 || b[i] <= 0 {
			continue
		}
		out[i] = math.Log(a[i]) - math.Log(b[i])
	}
	return out
}

func logOf(x []float64) []float64 {
	out := model.NaNs(len(x))
	for i := range x {
		if math.IsNaN(x[i]) || x[i] <= 0 {
			continue
		}
		out[i] = math.Log(x[i])
	}
	return out
}
