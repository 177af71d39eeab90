package regime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendRadar/internal/model"
)

func TestLabelsFlagAdverseWindows(t *testing.T) {
	// Flat, then a 10% cliff, then flat again.
	price := make([]float64, 40)
	for i := range price {
		switch {
		case i < 20:
			price[i] = 100.0
		default:
			price[i] = 90.0
		}
	}
	cfg := model.RiskModelConfig{
		HorizonDays:             5,
		FwdReturnThreshold:      -0.05,
		FwdMaxDrawdownThreshold: -0.07,
	}
	labels := Labels(price, cfg)

	require.Len(t, labels, len(price))
	assert.Equal(t, 0.0, labels[0], "calm stretch is not adverse")
	assert.Equal(t, 1.0, labels[17], "the cliff sits inside this forward window")
	assert.Equal(t, 0.0, labels[25], "post-cliff flat stretch is calm again")
	for i := len(price) - cfg.HorizonDays; i < len(price); i++ {
		assert.True(t, math.IsNaN(labels[i]), "unelapsed outcome window at %d must stay missing", i)
	}
}
