package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Rolling window helpers over NaN-aware float64 slices. A window produces a
// value only when every slot in it is observed; incomplete or NaN-containing
// windows yield NaN, so no statistic ever sees data it should not.

func windowOK(x []float64, end, window int) bool {
	if end+1 < window {
		return false
	}
	for i := end - window + 1; i <= end; i++ {
		if math.IsNaN(x[i]) {
			return false
		}
	}
	return true
}

// RollingMean computes the rolling arithmetic mean.
func RollingMean(x []float64, window int) []float64 {
	out := nans(len(x))
	for i := range x {
		if !windowOK(x, i, window) {
			continue
		}
		out[i] = stat.Mean(x[i-window+1:i+1], nil)
	}
	return out
}

// RollingStd computes the rolling sample standard deviation.
func RollingStd(x []float64, window int) []float64 {
	out := nans(len(x))
	for i := range x {
		if !windowOK(x, i, window) {
			continue
		}
		out[i] = stat.StdDev(x[i-window+1:i+1], nil)
	}
	return out
}

// RollingSum computes the rolling sum.
func RollingSum(x []float64, window int) []float64 {
	out := nans(len(x))
	for i := range x {
		if !windowOK(x, i, window) {
			continue
		}
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += x[j]
		}
		out[i] = sum
	}
	return out
}

// RollingMax computes the rolling maximum.
func RollingMax(x []float64, window int) []float64 {
	out := nans(len(x))
	for i := range x {
		if !windowOK(x, i, window) {
			continue
		}
		m := x[i-window+1]
		for j := i - window + 2; j <= i; j++ {
			if x[j] > m {
				m = x[j]
			}
		}
		out[i] = m
	}
	return out
}

// RollingCorr computes the rolling Pearson correlation of two slices.
func RollingCorr(x, y []float64, window int) []float64 {
	n := len(x)
	out := nans(n)
	for i := 0; i < n; i++ {
		if !windowOK(x, i, window) || !windowOK(y, i, window) {
			continue
		}
		c := stat.Correlation(x[i-window+1:i+1], y[i-window+1:i+1], nil)
		if !math.IsNaN(c) {
			out[i] = c
		}
	}
	return out
}

// ZScore standardizes each point against its trailing window mean and
// standard deviation. A zero deviation yields NaN, not infinity.
func ZScore(x []float64, window int) []float64 {
	mu := RollingMean(x, window)
	sd := RollingStd(x, window)
	out := nans(len(x))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(mu[i]) || math.IsNaN(sd[i]) || sd[i] == 0 {
			continue
		}
		out[i] = (x[i] - mu[i]) / sd[i]
	}
	return out
}

// Diff returns x[i] - x[i-n].
func Diff(x []float64, n int) []float64 {
	out := nans(len(x))
	for i := n; i < len(x); i++ {
		if math.IsNaN(x[i]) || math.IsNaN(x[i-n]) {
			continue
		}
		out[i] = x[i] - x[i-n]
	}
	return out
}

// PctChange returns x[i]/x[i-n] - 1.
func PctChange(x []float64, n int) []float64 {
	out := nans(len(x))
	for i := n; i < len(x); i++ {
		if math.IsNaN(x[i]) || math.IsNaN(x[i-n]) || x[i-n] == 0 {
			continue
		}
		out[i] = x[i]/x[i-n] - 1.0
	}
	return out
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
