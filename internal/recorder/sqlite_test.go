package recorder

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorderScoreUpsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	day := time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC)
	snap := ScoreSnapshot{
		Date:            day,
		Index:           "nifty50",
		Score:           62.5,
		Label:           "bullish_overboughtish",
		TrendScore:      45.0,
		RiskOffProb:     math.NaN(),
		DivergenceState: "normal",
	}
	require.NoError(t, r.RecordScores([]ScoreSnapshot{snap}))

	// Second run on the same day replaces the row instead of duplicating it.
	snap.Score = 58.0
	require.NoError(t, r.RecordScores([]ScoreSnapshot{snap}))

	var count int
	var score float64
	var prob any
	row := r.db.QueryRow(`SELECT COUNT(*) FROM score_snapshots`)
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 1, count)

	row = r.db.QueryRow(`SELECT score, risk_off_prob FROM score_snapshots WHERE idx = 'nifty50'`)
	require.NoError(t, row.Scan(&score, &prob))
	assert.Equal(t, 58.0, score)
	assert.Nil(t, prob, "NaN probability is stored as NULL")
}

func TestSQLiteRecorderRunEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scores.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer r.Close()

	evt := &RunEvent{
		StartedAt:  time.Now(),
		Duration:   1200 * time.Millisecond,
		SeriesUsed: 9,
		Rows:       4200,
	}
	require.NoError(t, r.RecordRun(evt))

	var rows int
	require.NoError(t, r.db.QueryRow(`SELECT rows FROM run_events`).Scan(&rows))
	assert.Equal(t, 4200, rows)
}
