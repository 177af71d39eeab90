package calculator

import "math"

// TradingDaysPerYear is the annualization base for daily data.
const TradingDaysPerYear = 252.0

// EMA computes an exponential moving average with span-based smoothing
// (alpha = 2/(span+1)). Leading NaNs are skipped; the first observed value
// seeds the average.
func EMA(x []float64, span int) []float64 {
	alpha := 2.0 / (float64(span) + 1.0)
	return emaAlpha(x, alpha)
}

func emaAlpha(x []float64, alpha float64) []float64 {
	out := nans(len(x))
	seeded := false
	var prev float64
	for i, v := range x {
		if math.IsNaN(v) {
			if seeded {
				out[i] = prev
			}
			continue
		}
		if !seeded {
			prev = v
			seeded = true
		} else {
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// RSIWilder computes the Wilder-smoothed relative strength index on closes.
// Gains and losses are smoothed with alpha = 1/period; an all-gain stretch
// reads 100 and a zero average loss yields NaN-free saturation.
func RSIWilder(close []float64, period int) []float64 {
	n := len(close)
	gain := nans(n)
	loss := nans(n)
	for i := 1; i < n; i++ {
		if math.IsNaN(close[i]) || math.IsNaN(close[i-1]) {
			continue
		}
		d := close[i] - close[i-1]
		if d > 0 {
			gain[i], loss[i] = d, 0
		} else {
			gain[i], loss[i] = 0, -d
		}
	}
	alpha := 1.0 / float64(period)
	avgGain := emaAlpha(gain, alpha)
	avgLoss := emaAlpha(loss, alpha)

	out := nans(n)
	for i := 0; i < n; i++ {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		if l == 0 {
			if g > 0 {
				out[i] = 100.0
			}
			continue
		}
		rs := g / l
		out[i] = 100.0 - 100.0/(1.0+rs)
	}
	return out
}

// LogReturns computes one-period log returns.
func LogReturns(price []float64) []float64 {
	out := nans(len(price))
	for i := 1; i < len(price); i++ {
		if math.IsNaN(price[i]) || math.IsNaN(price[i-1]) || price[i] <= 0 || price[i-1] <= 0 {
			continue
		}
		out[i] = math.Log(price[i] / price[i-1])
	}
	return out
}

// RealizedVol computes the rolling standard deviation of log returns,
// annualized by sqrt(252) when annualize is set.
func RealizedVol(price []float64, window int, annualize bool) []float64 {
	vol := RollingStd(LogReturns(price), window)
	if annualize {
		k := math.Sqrt(TradingDaysPerYear)
		for i := range vol {
			vol[i] *= k
		}
	}
	return vol
}

// DrawdownFromRollingHigh returns price relative to its rolling-window high,
// minus one. Always <= 0 where defined.
func DrawdownFromRollingHigh(price []float64, window int) []float64 {
	high := RollingMax(price, window)
	out := nans(len(price))
	for i := range price {
		if math.IsNaN(price[i]) || math.IsNaN(high[i]) || high[i] == 0 {
			continue
		}
		out[i] = price[i]/high[i] - 1.0
	}
	return out
}

// ForwardReturn computes price[t+h]/price[t] - 1. The trailing h points are
// NaN: their outcome window has not elapsed.
func ForwardReturn(price []float64, horizonDays int) []float64 {
	out := nans(len(price))
	for i := 0; i+horizonDays < len(price); i++ {
		f := price[i+horizonDays]
		if math.IsNaN(price[i]) || math.IsNaN(f) || price[i] == 0 {
			continue
		}
		out[i] = f/price[i] - 1.0
	}
	return out
}

// ForwardMaxDrawdown computes the worst peak-to-trough drawdown over the
// future window [t, t+h]. Defined only where the full window is available,
// matching ForwardReturn.
func ForwardMaxDrawdown(price []float64, horizonDays int) []float64 {
	out := nans(len(price))
	for i := 0; i+horizonDays < len(price); i++ {
		if math.IsNaN(price[i+horizonDays]) {
			continue
		}
		runMax := math.Inf(-1)
		worst := math.NaN()
		for j := i; j <= i+horizonDays; j++ {
			v := price[j]
			if math.IsNaN(v) {
				// interior gap: ignore the slot, like a non-trading day
				continue
			}
			if v > runMax {
				runMax = v
			}
			dd := v/runMax - 1.0
			if math.IsNaN(worst) || dd < worst {
				worst = dd
			}
		}
		if !math.IsNaN(worst) {
			out[i] = worst
		}
	}
	return out
}

// Clamp bounds v to [lo, hi], passing NaN through.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
