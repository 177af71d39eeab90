package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists score history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read while
	// the analyzer writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS score_snapshots (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at       INTEGER NOT NULL,
			date              TEXT NOT NULL,
			idx               TEXT NOT NULL,
			score             REAL,
			label             TEXT,
			trend_score       REAL,
			risk_penalty      REAL,
			reversion_adj_eff REAL,
			impulse_adj_eff   REAL,
			risk_off_prob     REAL,
			riskoff_composite REAL,
			divergence_state  TEXT,
			divergence_flag   INTEGER,
			UNIQUE(date, idx)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_date ON score_snapshots(date)`,

		`CREATE TABLE IF NOT EXISTS run_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  INTEGER NOT NULL,
			duration_ms INTEGER,
			series_used INTEGER,
			rows        INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON run_events(started_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScores upserts the latest scored day per index. Re-running the
// pipeline for the same date overwrites the earlier row.
func (r *SQLiteRecorder) RecordScores(snaps []ScoreSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()
	for _, s := range snaps {
		flag := 0
		if s.DivergenceFlag {
			flag = 1
		}
		_, err := r.db.Exec(`INSERT INTO score_snapshots
			(recorded_at, date, idx, score, label, trend_score, risk_penalty,
			 reversion_adj_eff, impulse_adj_eff, risk_off_prob, riskoff_composite,
			 divergence_state, divergence_flag)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT(date, idx) DO UPDATE SET
			 recorded_at=excluded.recorded_at,
			 score=excluded.score, label=excluded.label,
			 trend_score=excluded.trend_score, risk_penalty=excluded.risk_penalty,
			 reversion_adj_eff=excluded.reversion_adj_eff,
			 impulse_adj_eff=excluded.impulse_adj_eff,
			 risk_off_prob=excluded.risk_off_prob,
			 riskoff_composite=excluded.riskoff_composite,
			 divergence_state=excluded.divergence_state,
			 divergence_flag=excluded.divergence_flag`,
			now, s.Date.Format("2006-01-02"), s.Index,
			nullable(s.Score), s.Label,
			nullable(s.TrendScore), nullable(s.RiskPenalty),
			nullable(s.ReversionAdjEff), nullable(s.ImpulseAdjEff),
			nullable(s.RiskOffProb), nullable(s.RiskoffComposite),
			s.DivergenceState, flag,
		)
		if err != nil {
			return fmt.Errorf("insert score snapshot %s/%s: %w", s.Index, s.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO run_events
		(started_at, duration_ms, series_used, rows, error)
		VALUES (?,?,?,?,?)`,
		evt.StartedAt.Unix(), evt.Duration.Milliseconds(),
		evt.SeriesUsed, evt.Rows, evt.Err,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

// nullable maps NaN to SQL NULL so missing values stay missing in queries.
func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
