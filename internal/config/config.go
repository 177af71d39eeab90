package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Candidates is an ordered ticker fallback list. The YAML side may give a
// single scalar or a sequence; both are normalized to a list here so the
// rest of the pipeline only ever sees []string.
type Candidates []string

// UnmarshalYAML accepts either a scalar ticker or a sequence of tickers.
func (c *Candidates) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		if s == "" {
			*c = nil
		} else {
			*c = Candidates{s}
		}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		out := make(Candidates, 0, len(list))
		for _, s := range list {
			if s != "" {
				out = append(out, s)
			}
		}
		*c = out
		return nil
	default:
		return fmt.Errorf("ticker candidates: want scalar or list, got yaml kind %d", value.Kind)
	}
}

// Config holds all application configuration.
type Config struct {
	Data struct {
		CacheDir           string `yaml:"cache_dir"`
		Start              string `yaml:"start"`
		End                string `yaml:"end"`
		MaxForwardFillDays int    `yaml:"max_forward_fill_days"`
	} `yaml:"data"`
	Tickers struct {
		Equities map[string]Candidates `yaml:"equities"`
		RiskOff  map[string]Candidates `yaml:"risk_off"`
		Yields   map[string]Candidates `yaml:"yields"`
	} `yaml:"tickers"`
	Features struct {
		EMAFast      int   `yaml:"ema_fast"`
		EMASlow      int   `yaml:"ema_slow"`
		RSI          int   `yaml:"rsi"`
		ZWindow      int   `yaml:"z_window"`
		PriceZWindow int   `yaml:"price_z_window"`
		VolWindows   []int `yaml:"vol_windows"`
		DDWindow     int   `yaml:"dd_window"`
	} `yaml:"features"`
	RiskModel struct {
		HorizonDays             int     `yaml:"horizon_days"`
		FwdReturnThreshold      float64 `yaml:"fwd_return_threshold"`
		FwdMaxDrawdownThreshold float64 `yaml:"fwd_max_drawdown_threshold"`
		MinTrainYears           int     `yaml:"min_train_years"`
		RegularizationC         float64 `yaml:"regularization_c"`
	} `yaml:"risk_model"`
	Scoring struct {
		TrendScoreMax   float64 `yaml:"trend_score_max"`
		RiskPenaltyMax  float64 `yaml:"risk_penalty_max"`
		ReversionAdjMax float64 `yaml:"reversion_adj_max"`
		ImpulseAdjMax   float64 `yaml:"impulse_adj_max"`
		NeutralShift    float64 `yaml:"neutral_shift"`
	} `yaml:"scoring"`
	Output struct {
		WriteFeatures bool   `yaml:"write_features"`
		XLSXReport    string `yaml:"xlsx_report"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.Data.CacheDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}

	// Defaults
	if cfg.Data.CacheDir == "" {
		cfg.Data.CacheDir = "data/cache"
	}
	if cfg.Data.MaxForwardFillDays == 0 {
		cfg.Data.MaxForwardFillDays = 3
	}
	if cfg.Features.EMAFast == 0 {
		cfg.Features.EMAFast = 50
	}
	if cfg.Features.EMASlow == 0 {
		cfg.Features.EMASlow = 200
	}
	if cfg.Features.RSI == 0 {
		cfg.Features.RSI = 14
	}
	if cfg.Features.ZWindow == 0 {
		cfg.Features.ZWindow = 252
	}
	if cfg.Features.PriceZWindow == 0 {
		cfg.Features.PriceZWindow = 60
	}
	if len(cfg.Features.VolWindows) == 0 {
		cfg.Features.VolWindows = []int{20, 60}
	}
	if cfg.Features.DDWindow == 0 {
		cfg.Features.DDWindow = 252
	}
	if cfg.RiskModel.HorizonDays == 0 {
		cfg.RiskModel.HorizonDays = 21
	}
	if cfg.RiskModel.FwdReturnThreshold == 0 {
		cfg.RiskModel.FwdReturnThreshold = -0.05
	}
	if cfg.RiskModel.FwdMaxDrawdownThreshold == 0 {
		cfg.RiskModel.FwdMaxDrawdownThreshold = -0.07
	}
	if cfg.RiskModel.MinTrainYears == 0 {
		cfg.RiskModel.MinTrainYears = 5
	}
	if cfg.RiskModel.RegularizationC == 0 {
		cfg.RiskModel.RegularizationC = 1.0
	}
	if cfg.Scoring.TrendScoreMax == 0 {
		cfg.Scoring.TrendScoreMax = 60
	}
	if cfg.Scoring.RiskPenaltyMax == 0 {
		cfg.Scoring.RiskPenaltyMax = 20
	}
	if cfg.Scoring.ReversionAdjMax == 0 {
		cfg.Scoring.ReversionAdjMax = 20
	}
	if cfg.Scoring.ImpulseAdjMax == 0 {
		cfg.Scoring.ImpulseAdjMax = 20
	}
	if cfg.Scoring.NeutralShift == 0 {
		cfg.Scoring.NeutralShift = 20
	}
	if cfg.Schedule.DailyCron == "" {
		cfg.Schedule.DailyCron = "0 30 18 * * 1-5"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and coherent.
func (c *Config) Validate() error {
	if len(c.Tickers.Equities["nifty50"]) == 0 {
		return fmt.Errorf("tickers.equities.nifty50 is required")
	}
	if c.RiskModel.HorizonDays <= 0 {
		return fmt.Errorf("risk_model.horizon_days must be positive")
	}
	if c.RiskModel.RegularizationC <= 0 {
		return fmt.Errorf("risk_model.regularization_c must be positive")
	}
	if c.RiskModel.MinTrainYears < 0 {
		return fmt.Errorf("risk_model.min_train_years must not be negative")
	}
	if c.Data.MaxForwardFillDays < 0 {
		return fmt.Errorf("data.max_forward_fill_days must not be negative")
	}
	if c.Features.EMAFast >= c.Features.EMASlow {
		return fmt.Errorf("features.ema_fast must be shorter than features.ema_slow")
	}
	if _, err := c.StartTime(); err != nil {
		return err
	}
	if _, err := c.EndTime(); err != nil {
		return err
	}
	return nil
}

// StartTime parses the global history start bound; zero when unset.
func (c *Config) StartTime() (time.Time, error) {
	return parseDate("data.start", c.Data.Start)
}

// EndTime parses the global end bound; zero means "up to latest available".
func (c *Config) EndTime() (time.Time, error) {
	return parseDate("data.end", c.Data.End)
}

func parseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: bad date %q: %w", field, v, err)
	}
	return t, nil
}
