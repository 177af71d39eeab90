package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
tickers:
  equities:
    nifty50: "^NSEI"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "data/cache", cfg.Data.CacheDir)
	assert.Equal(t, 3, cfg.Data.MaxForwardFillDays)
	assert.Equal(t, 50, cfg.Features.EMAFast)
	assert.Equal(t, 200, cfg.Features.EMASlow)
	assert.Equal(t, []int{20, 60}, cfg.Features.VolWindows)
	assert.Equal(t, 21, cfg.RiskModel.HorizonDays)
	assert.Equal(t, -0.05, cfg.RiskModel.FwdReturnThreshold)
	assert.Equal(t, 5, cfg.RiskModel.MinTrainYears)
	assert.Equal(t, 1.0, cfg.RiskModel.RegularizationC)
	assert.Equal(t, 60.0, cfg.Scoring.TrendScoreMax)
	assert.Equal(t, "0 30 18 * * 1-5", cfg.Schedule.DailyCron)
}

func TestCandidatesScalarOrList(t *testing.T) {
	path := writeConfig(t, `
tickers:
  equities:
    nifty50: "^NSEI"
    midcap100: ["^CNXMIDCAP", "NIFTYMIDCAP100.NS"]
  yields:
    india10y_candidates:
      - "IN10Y.BOND"
      - "^IN10Y"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Candidates{"^NSEI"}, cfg.Tickers.Equities["nifty50"])
	assert.Equal(t, Candidates{"^CNXMIDCAP", "NIFTYMIDCAP100.NS"}, cfg.Tickers.Equities["midcap100"])
	assert.Equal(t, Candidates{"IN10Y.BOND", "^IN10Y"}, cfg.Tickers.Yields["india10y_candidates"])
}

func TestValidateRequiresAnchorIndex(t *testing.T) {
	path := writeConfig(t, `
tickers:
  risk_off:
    gold: "GC=F"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Validate(), "nifty50")
}

func TestValidateRejectsBadDates(t *testing.T) {
	path := writeConfig(t, `
data:
  start: "not-a-date"
tickers:
  equities:
    nifty50: "^NSEI"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestDateBounds(t *testing.T) {
	path := writeConfig(t, `
data:
  start: "2007-01-01"
tickers:
  equities:
    nifty50: "^NSEI"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	start, err := cfg.StartTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC), start)

	end, err := cfg.EndTime()
	require.NoError(t, err)
	assert.True(t, end.IsZero())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CACHE_DIR", "/tmp/alt-cache")
	t.Setenv("CRON_DAILY", "0 0 9 * * 1-5")

	path := writeConfig(t, `
data:
  cache_dir: data/cache
tickers:
  equities:
    nifty50: "^NSEI"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/alt-cache", cfg.Data.CacheDir)
	assert.Equal(t, "0 0 9 * * 1-5", cfg.Schedule.DailyCron)
}
