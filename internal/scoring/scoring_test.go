package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendRadar/internal/model"
)

func testConfig() Config {
	return Config{
		TrendScoreMax:   60.0,
		RiskPenaltyMax:  20.0,
		ReversionAdjMax: 20.0,
		ImpulseAdjMax:   20.0,
		NeutralShift:    20.0,
	}
}

func featFrame(n int, fill func(i int, set func(name string, v float64))) *model.Frame {
	dates := make([]time.Time, n)
	d := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = d.AddDate(0, 0, i)
	}
	f := model.NewFrame(dates)
	cols := map[string][]float64{}
	for _, name := range []string{
		"ema_slope_z", "ema_ratio_z", "d200_z", "dd_z", "mom20_z",
		"mom5_vs_sigma_z", "rsi", "price_z", "lr", "vol20",
	} {
		cols[name] = model.NaNs(n)
	}
	for i := 0; i < n; i++ {
		fill(i, func(name string, v float64) { cols[name][i] = v })
	}
	for name, col := range cols {
		f.Set(name, col)
	}
	return f
}

func neutralFill(i int, set func(string, float64)) {
	set("ema_slope_z", 0)
	set("ema_ratio_z", 0)
	set("d200_z", 0)
	set("dd_z", 0)
	set("mom20_z", 0)
	set("mom5_vs_sigma_z", 0)
	set("rsi", 50)
	set("price_z", 0)
	set("lr", 0.001)
	set("vol20", 0.15)
}

func TestScoreBoundsAndNeutrality(t *testing.T) {
	feat := featFrame(5, neutralFill)
	comps := Components(feat, testConfig())
	scored := Assemble(comps, nil, nil, testConfig())

	score := scored.MustCol("score")
	for _, s := range score {
		require.False(t, math.IsNaN(s))
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 100.0)
		// neutral inputs: half the trend band plus the neutral shift
		assert.InDelta(t, 50.0, s, 1e-9)
	}
}

func TestRiskPenaltyReducesScore(t *testing.T) {
	feat := featFrame(2, neutralFill)
	comps := Components(feat, testConfig())

	probs := []float64{0.0, 1.0}
	scored := Assemble(comps, probs, nil, testConfig())
	score := scored.MustCol("score")

	assert.InDelta(t, 20.0, score[0]-score[1], 1e-9, "full risk-off probability costs the full penalty")

	probCol := scored.MustCol("risk_off_prob")
	assert.Equal(t, 0.0, probCol[0])
	assert.Equal(t, 1.0, probCol[1])
}

func TestMissingProbabilityMeansNoPenaltyButStaysMissing(t *testing.T) {
	feat := featFrame(1, neutralFill)
	comps := Components(feat, testConfig())
	scored := Assemble(comps, []float64{math.NaN()}, nil, testConfig())

	assert.Equal(t, 0.0, scored.MustCol("risk_penalty")[0])
	assert.True(t, math.IsNaN(scored.MustCol("risk_off_prob")[0]))
	assert.False(t, math.IsNaN(scored.MustCol("score")[0]))
}

func TestRiskContextDampsBullishAdjustments(t *testing.T) {
	oversold := func(i int, set func(string, float64)) {
		neutralFill(i, set)
		set("rsi", 15) // deeply oversold: positive reversion adjustment
	}
	feat := featFrame(2, oversold)
	comps := Components(feat, testConfig())

	calm := Assemble(comps, []float64{0, 0}, []float64{-1.0, -1.0}, testConfig())
	stressed := Assemble(comps, []float64{0, 0}, []float64{2.0, 2.0}, testConfig())

	assert.Greater(t, calm.MustCol("reversion_adj_eff")[0], stressed.MustCol("reversion_adj_eff")[0],
		"a hot risk-off composite must damp the oversold bounce")
	assert.Greater(t, calm.MustCol("score")[0], stressed.MustCol("score")[0])
}

func TestLabelBands(t *testing.T) {
	cases := map[float64]string{
		5:    "oversold_panic",
		25:   "bearish_below_trend",
		45:   "neutral_fair_vs_trend",
		65:   "bullish_overboughtish",
		95:   "euphoric_very_overbought",
		19.9: "oversold_panic",
		20.0: "bearish_below_trend",
	}
	for score, want := range cases {
		assert.Equal(t, want, Label(score), "score %.1f", score)
	}
	assert.Equal(t, "insufficient_data", Label(math.NaN()))
}

func TestDivergenceStates(t *testing.T) {
	fill := func(i int, set func(string, float64)) {
		neutralFill(i, set)
		switch i {
		case 0: // trend up, calm
			set("ema_slope_z", 1)
			set("ema_ratio_z", 1)
		case 1: // heavy down day
			set("lr", -0.03)
		case 2: // bounce after the heavy down day
			set("lr", 0.015)
			set("ema_slope_z", 1)
			set("ema_ratio_z", 1)
		case 3: // drifting up in a riskoff backdrop without trend support
			set("lr", 0.001)
			set("ema_slope_z", -1)
			set("ema_ratio_z", -1)
		}
	}
	feat := featFrame(4, fill)
	comp := []float64{0.2, 1.5, 1.5, 1.5}

	states, flags := DivergenceStates(feat, comp)

	assert.Equal(t, StateNormal, states[0])
	assert.Equal(t, StateRiskoffCrashDay, states[1])
	assert.Equal(t, StateRiskoffBearBounce, states[2])
	assert.Equal(t, StateRiskoffDowntrend, states[3])
	for i, f := range flags {
		assert.False(t, f, "no true divergence expected at %d", i)
	}
}

func TestDivergenceTrueDivergenceFlag(t *testing.T) {
	fill := func(i int, set func(string, float64)) {
		neutralFill(i, set)
		set("lr", 0.002)
		set("ema_slope_z", 1)
		set("ema_ratio_z", 1)
	}
	feat := featFrame(2, fill)
	states, flags := DivergenceStates(feat, []float64{1.5, 1.5})

	assert.Equal(t, StateDivergenceTrendUp, states[1])
	assert.True(t, flags[1])
}
