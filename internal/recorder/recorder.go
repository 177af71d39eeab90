package recorder

import "time"

// ScoreSnapshot is one index's latest scored day, persisted after each
// pipeline run so score history survives cache refreshes.
type ScoreSnapshot struct {
	Date             time.Time
	Index            string
	Score            float64
	Label            string
	TrendScore       float64
	RiskPenalty      float64
	ReversionAdjEff  float64
	ImpulseAdjEff    float64
	RiskOffProb      float64
	RiskoffComposite float64
	DivergenceState  string
	DivergenceFlag   bool
}

// RunEvent records one pipeline run's outcome.
type RunEvent struct {
	StartedAt  time.Time
	Duration   time.Duration
	SeriesUsed int
	Rows       int
	Err        string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordScores(snaps []ScoreSnapshot) error
	RecordRun(evt *RunEvent) error
	Close() error
}
