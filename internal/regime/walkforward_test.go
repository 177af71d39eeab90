package regime

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendRadar/internal/model"
)

// businessDays returns n consecutive weekdays starting at the given date.
func businessDays(start string, n int) []time.Time {
	d, err := time.ParseInLocation("2006-01-02", start, time.UTC)
	if err != nil {
		panic(err)
	}
	out := make([]time.Time, 0, n)
	for len(out) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}

func syntheticProblem(n int) (*model.Frame, []float64) {
	idx := businessDays("2018-01-01", n)
	rng := rand.New(rand.NewSource(0))

	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = rng.NormFloat64()
		x2[i] = rng.NormFloat64()
		logit := 0.8*x1[i] - 0.2*x2[i]
		p := 1.0 / (1.0 + math.Exp(-logit))
		if rng.Float64() < p {
			y[i] = 1.0
		}
	}

	x := model.NewFrame(idx)
	x.Set("x1", x1)
	x.Set("x2", x2)
	return x, y
}

func defaultCfg() model.RiskModelConfig {
	return model.RiskModelConfig{
		HorizonDays:             21,
		FwdReturnThreshold:      -0.05,
		FwdMaxDrawdownThreshold: -0.07,
		MinTrainYears:           1,
		RegularizationC:         1.0,
	}
}

func TestWalkForwardOutputsProbabilities(t *testing.T) {
	x, y := syntheticProblem(900)
	probs := WalkForward(x, y, defaultCfg())

	require.Len(t, probs, x.Len())
	finite := 0
	for _, p := range probs {
		if math.IsNaN(p) {
			continue
		}
		finite++
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
	assert.Greater(t, finite, 0, "expected some probabilities once history suffices")
}

func TestWalkForwardRespectsMinHistoryGate(t *testing.T) {
	x, y := syntheticProblem(900)
	probs := WalkForward(x, y, defaultCfg())

	// Nothing can be predicted until at least one year of history has
	// accumulated ahead of a month-end boundary.
	oneYearIn := x.Dates[0].AddDate(1, 0, 0)
	for i, d := range x.Dates {
		if d.Before(oneYearIn) {
			assert.True(t, math.IsNaN(probs[i]), "date %s predates the min-history gate", d.Format("2006-01-02"))
		}
	}
}

func TestWalkForwardSingleClassGate(t *testing.T) {
	x, _ := syntheticProblem(900)
	y := make([]float64, x.Len())
	for i := range y {
		y[i] = 1.0 // only the adverse class, never a calm day
	}
	probs := WalkForward(x, y, defaultCfg())
	for _, p := range probs {
		assert.True(t, math.IsNaN(p), "single-class training must leave the whole timeline missing")
	}
}

func TestWalkForwardMissingLabelsAreUntrainable(t *testing.T) {
	x, y := syntheticProblem(900)
	for i := range y {
		y[i] = math.NaN() // outcome windows never elapsed
	}
	probs := WalkForward(x, y, defaultCfg())
	for _, p := range probs {
		assert.True(t, math.IsNaN(p))
	}
}

func TestWalkForwardEmptyIndex(t *testing.T) {
	x := model.NewFrame(nil)
	probs := WalkForward(x, nil, defaultCfg())
	assert.Empty(t, probs)
}

func TestWalkForwardLearnsSignal(t *testing.T) {
	x, y := syntheticProblem(1200)
	probs := WalkForward(x, y, defaultCfg())

	x1, _ := x.Col("x1")
	var hiSum, hiN, loSum, loN float64
	for i, p := range probs {
		if math.IsNaN(p) {
			continue
		}
		if x1[i] > 1.0 {
			hiSum += p
			hiN++
		} else if x1[i] < -1.0 {
			loSum += p
			loN++
		}
	}
	require.Greater(t, hiN, 10.0)
	require.Greater(t, loN, 10.0)
	assert.Greater(t, hiSum/hiN, loSum/loN,
		"predicted probability should rise with the generating feature")
}

func TestMonthEnds(t *testing.T) {
	idx := businessDays("2026-01-20", 10) // spans Jan into early Feb
	ends := MonthEnds(idx)

	require.NotEmpty(t, ends)
	assert.Equal(t, time.January, ends[0].Month())
	assert.Equal(t, idx[len(idx)-1], ends[len(ends)-1], "final index date closes the last month")
	for i := 1; i < len(ends); i++ {
		assert.True(t, ends[i].After(ends[i-1]))
	}
}

func TestNextMonthEnd(t *testing.T) {
	d := func(s string) time.Time {
		t, _ := time.ParseInLocation("2006-01-02", s, time.UTC)
		return t
	}
	assert.Equal(t, d("2026-01-31"), NextMonthEnd(d("2026-01-05")))
	assert.Equal(t, d("2026-02-28"), NextMonthEnd(d("2026-02-01")))
	assert.Equal(t, d("2024-02-29"), NextMonthEnd(d("2024-02-10")))
	assert.Equal(t, d("2026-12-31"), NextMonthEnd(d("2026-12-31")))
}
