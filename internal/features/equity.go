package features

import (
	"fmt"
	"math"

	"TrendRadar/internal/calculator"
	"TrendRadar/internal/model"
)

// Config holds the feature windows, read once from configuration.
type Config struct {
	EMAFast      int
	EMASlow      int
	RSI          int
	ZWindow      int
	PriceZWindow int
	VolWindows   []int
	DDWindow     int
}

// slopeDays is the lookback for the slow-EMA slope approximation.
const slopeDays = 60

// EquityFrame builds the per-index feature frame used for trend,
// mean-reversion and stress scoring: price context, EMAs, RSI, drawdown,
// realized vols, short momentum, and trailing-z standardized versions.
func EquityFrame(frame *model.Frame, column string, cfg Config) *model.Frame {
	px := frame.MustCol(column)
	out := model.NewFrame(frame.Dates)

	lr := calculator.LogReturns(px)
	emaFast := calculator.EMA(px, cfg.EMAFast)
	emaSlow := calculator.EMA(px, cfg.EMASlow)

	out.Set("px", px)
	out.Set("lr", lr)
	out.Set(fmt.Sprintf("ema%d", cfg.EMAFast), emaFast)
	out.Set(fmt.Sprintf("ema%d", cfg.EMASlow), emaSlow)

	n := len(px)
	emaRatio := model.NaNs(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(emaFast[i]) || math.IsNaN(emaSlow[i]) || emaSlow[i] == 0 {
			continue
		}
		emaRatio[i] = emaFast[i]/emaSlow[i] - 1.0
	}
	out.Set("ema_ratio", emaRatio)

	// Trend slope: percent change of the slow EMA over 60 trading days,
	// scaled to a rough annual rate.
	emaSlope := model.NaNs(n)
	for i := slopeDays; i < n; i++ {
		if math.IsNaN(emaSlow[i]) || math.IsNaN(emaSlow[i-slopeDays]) || emaSlow[i-slopeDays] == 0 {
			continue
		}
		emaSlope[i] = (emaSlow[i]/emaSlow[i-slopeDays] - 1.0) * (calculator.TradingDaysPerYear / slopeDays)
	}
	out.Set("ema_slope", emaSlope)

	d200 := model.NaNs(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(px[i]) || math.IsNaN(emaSlow[i]) || emaSlow[i] == 0 {
			continue
		}
		d200[i] = px[i]/emaSlow[i] - 1.0
	}
	out.Set("d200", d200)

	out.Set("rsi", calculator.RSIWilder(px, cfg.RSI))
	out.Set("price_z", calculator.ZScore(px, cfg.PriceZWindow))
	out.Set("dd", calculator.DrawdownFromRollingHigh(px, cfg.DDWindow))

	for _, w := range cfg.VolWindows {
		out.Set(fmt.Sprintf("vol%d", w), calculator.RealizedVol(px, w, true))
	}

	// Fast move / impulse features, sensitive to rapid selloffs and rebounds.
	mom5 := calculator.RollingSum(lr, 5)
	mom20 := calculator.RollingSum(lr, 20)
	out.Set("mom5", mom5)
	out.Set("mom20", mom20)

	mom5VsSigma := model.NaNs(n)
	if vol20, ok := out.Col("vol20"); ok {
		for i := 0; i < n; i++ {
			if math.IsNaN(mom5[i]) || math.IsNaN(vol20[i]) || vol20[i] == 0 {
				continue
			}
			dailySigma := vol20[i] / math.Sqrt(calculator.TradingDaysPerYear)
			mom5VsSigma[i] = mom5[i] / (dailySigma * math.Sqrt(5.0))
		}
	}
	out.Set("mom5_vs_sigma", mom5VsSigma)

	out.Set("ema_slope_z", calculator.ZScore(emaSlope, cfg.ZWindow))
	out.Set("ema_ratio_z", calculator.ZScore(emaRatio, cfg.ZWindow))
	out.Set("d200_z", calculator.ZScore(d200, cfg.ZWindow))
	out.Set("dd_z", calculator.ZScore(out.MustCol("dd"), cfg.ZWindow))
	out.Set("mom20_z", calculator.ZScore(mom20, cfg.ZWindow))
	out.Set("mom5_vs_sigma_z", calculator.ZScore(mom5VsSigma, cfg.ZWindow))

	return out
}
