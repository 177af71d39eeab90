package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendRadar/internal/model"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAlignForwardFillLimit(t *testing.T) {
	start := day("2020-01-01")
	dates := make([]time.Time, 6)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}

	a := model.Series{
		Dates:  []time.Time{dates[0], dates[3], dates[5]},
		Values: []float64{1.0, 4.0, 6.0},
	}
	b := model.Series{
		Dates:  []time.Time{dates[0], dates[1], dates[5]},
		Values: []float64{10.0, 11.0, 15.0},
	}

	frame := Align(map[string]model.Series{"a": a, "b": b}, 1)
	require.Equal(t, 6, frame.Len())

	colA := frame.MustCol("a")
	assert.Equal(t, 1.0, colA[1], "one-day fill bridges the first gap")
	assert.True(t, math.IsNaN(colA[2]), "fill limit must stop after one day")

	colB := frame.MustCol("b")
	assert.Equal(t, 11.0, colB[2])
	assert.True(t, math.IsNaN(colB[3]))
}

func TestAlignUnionCalendar(t *testing.T) {
	a := model.Series{Dates: []time.Time{day("2020-01-02"), day("2020-01-06")}, Values: []float64{1, 2}}
	b := model.Series{Dates: []time.Time{day("2020-01-03")}, Values: []float64{3}}

	frame := Align(map[string]model.Series{"a": a, "b": b}, 0)
	require.Equal(t, 3, frame.Len())
	assert.Equal(t, day("2020-01-02"), frame.Dates[0])
	assert.Equal(t, day("2020-01-06"), frame.Dates[2])
}

func syntheticPrices(n int) *model.Frame {
	dates := make([]time.Time, n)
	px := make([]float64, n)
	d := day("2020-01-01")
	for i := 0; i < n; i++ {
		dates[i] = d.AddDate(0, 0, i)
		// gentle uptrend with a wobble
		px[i] = 100.0 * math.Exp(0.0004*float64(i)+0.01*math.Sin(float64(i)/7.0))
	}
	f := model.NewFrame(dates)
	f.Set("eq_nifty50", px)
	return f
}

func TestEquityFrameColumns(t *testing.T) {
	frame := syntheticPrices(700)
	cfg := Config{
		EMAFast: 50, EMASlow: 200, RSI: 14,
		ZWindow: 252, PriceZWindow: 60,
		VolWindows: []int{20, 60}, DDWindow: 252,
	}
	feats := EquityFrame(frame, "eq_nifty50", cfg)

	for _, name := range []string{
		"px", "lr", "ema50", "ema200", "ema_ratio", "ema_slope", "d200",
		"rsi", "price_z", "dd", "vol20", "vol60", "mom5", "mom20",
		"mom5_vs_sigma", "ema_slope_z", "ema_ratio_z", "d200_z", "dd_z",
		"mom20_z", "mom5_vs_sigma_z",
	} {
		assert.True(t, feats.Has(name), "missing column %s", name)
	}

	rsi := feats.MustCol("rsi")
	dd := feats.MustCol("dd")
	for i := range rsi {
		if !math.IsNaN(rsi[i]) {
			assert.GreaterOrEqual(t, rsi[i], 0.0)
			assert.LessOrEqual(t, rsi[i], 100.0)
		}
		if !math.IsNaN(dd[i]) {
			assert.LessOrEqual(t, dd[i], 1e-12, "drawdown can never be positive")
		}
	}
}

func TestCrossAssetComposite(t *testing.T) {
	n := 400
	frame := syntheticPrices(n)
	gold := make([]float64, n)
	vix := make([]float64, n)
	for i := 0; i < n; i++ {
		gold[i] = 1500.0 + 0.5*float64(i)
		vix[i] = 18.0 + 4.0*math.Sin(float64(i)/11.0)
	}
	frame.Set("ro_gold", gold)
	frame.Set("ro_vix", vix)

	xa := CrossAsset(frame, 252)
	require.True(t, xa.Has("gold_vs_nifty_z"))
	require.True(t, xa.Has("vix_chg20_z"))
	require.True(t, xa.Has("corr60_nifty_gold"))
	require.True(t, xa.Has("riskoff_composite"))

	comp := xa.MustCol("riskoff_composite")
	finite := 0
	for _, v := range comp {
		if !math.IsNaN(v) {
			finite++
		}
	}
	assert.Greater(t, finite, 0, "composite should exist once z windows are warm")
}

func TestCrossAssetMissingSeriesAreSkipped(t *testing.T) {
	frame := syntheticPrices(300)
	xa := CrossAsset(frame, 252)

	assert.False(t, xa.Has("gold_vs_nifty_z"))
	assert.False(t, xa.Has("us_curve_slope_z"))
	assert.True(t, xa.Has("riskoff_composite"), "composite column exists even when all-NaN")
}
