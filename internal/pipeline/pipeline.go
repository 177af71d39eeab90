package pipeline

import (
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"TrendRadar/internal/config"
	"TrendRadar/internal/features"
	"TrendRadar/internal/model"
	"TrendRadar/internal/recorder"
	"TrendRadar/internal/regime"
	"TrendRadar/internal/report"
	"TrendRadar/internal/resolver"
	"TrendRadar/internal/scoring"
	"TrendRadar/internal/source"
	"TrendRadar/internal/store"
)

// modelColumns are the anchor-index features fed to the risk model alongside
// the cross-asset block.
var modelColumns = []string{
	"ema_slope_z", "ema_ratio_z", "d200_z", "dd_z", "price_z", "rsi", "vol20", "vol60",
}

// Pipeline runs one end-to-end scoring pass: resolve series, build features,
// train the walk-forward risk model, assemble scores, and write outputs.
type Pipeline struct {
	Config   *config.Config
	Store    *store.Store
	Fetcher  source.Fetcher
	Recorder recorder.Recorder
	OutDir   string
	Refresh  bool
	Now      func() time.Time
}

// Result summarizes a completed run.
type Result struct {
	SeriesUsed int
	Rows       []report.ScoreRow
}

// Run executes the pipeline and writes all configured outputs.
func (p *Pipeline) Run() (*Result, error) {
	started := time.Now()
	res, err := p.run()

	evt := &recorder.RunEvent{
		StartedAt:  started,
		Duration:   time.Since(started),
	}
	if res != nil {
		evt.SeriesUsed = res.SeriesUsed
		evt.Rows = len(res.Rows)
	}
	if err != nil {
		evt.Err = err.Error()
	}
	if recErr := p.Recorder.RecordRun(evt); recErr != nil {
		log.Printf("[ERROR] record run event: %v", recErr)
	}
	return res, err
}

func (p *Pipeline) run() (*Result, error) {
	cfg := p.Config

	start, err := cfg.StartTime()
	if err != nil {
		return nil, err
	}
	end, err := cfg.EndTime()
	if err != nil {
		return nil, err
	}

	rsv := &resolver.Resolver{
		Store:   p.Store,
		Fetcher: p.Fetcher,
		Start:   start,
		End:     end,
		Refresh: p.Refresh,
		Now:     p.Now,
	}

	seriesMap, err := p.resolveSeries(rsv)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] resolved %d series", len(seriesMap))

	aligned := features.Align(seriesMap, cfg.Data.MaxForwardFillDays)
	if aligned.Len() == 0 {
		return nil, fmt.Errorf("pipeline: no rows after alignment")
	}

	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := report.WriteFrameCSV(filepath.Join(p.OutDir, "aligned_prices.csv"), aligned); err != nil {
		return nil, err
	}

	featCfg := features.Config{
		EMAFast:      cfg.Features.EMAFast,
		EMASlow:      cfg.Features.EMASlow,
		RSI:          cfg.Features.RSI,
		ZWindow:      cfg.Features.ZWindow,
		PriceZWindow: cfg.Features.PriceZWindow,
		VolWindows:   cfg.Features.VolWindows,
		DDWindow:     cfg.Features.DDWindow,
	}

	eqFeats := map[string]*model.Frame{}
	for _, name := range []string{"nifty50", "midcap100", "smallcap100"} {
		col := "eq_" + name
		if aligned.Has(col) {
			eqFeats[name] = features.EquityFrame(aligned, col, featCfg)
		}
	}
	niftyFeat, ok := eqFeats["nifty50"]
	if !ok {
		return nil, fmt.Errorf("pipeline: missing nifty50 data, cannot train the risk model")
	}

	xasset := features.CrossAsset(aligned, cfg.Features.ZWindow)

	rmCfg := model.RiskModelConfig{
		HorizonDays:             cfg.RiskModel.HorizonDays,
		FwdReturnThreshold:      cfg.RiskModel.FwdReturnThreshold,
		FwdMaxDrawdownThreshold: cfg.RiskModel.FwdMaxDrawdownThreshold,
		MinTrainYears:           cfg.RiskModel.MinTrainYears,
		RegularizationC:         cfg.RiskModel.RegularizationC,
	}

	modelX := buildModelFrame(niftyFeat, xasset)
	labels := regime.Labels(niftyFeat.MustCol("px"), rmCfg)

	probs := walkForwardProbs(modelX, labels, rmCfg)

	var riskoffComp []float64
	if xasset.Has("riskoff_composite") {
		riskoffComp = xasset.MustCol("riskoff_composite")
	}
	states, flags := scoring.DivergenceStates(niftyFeat, riskoffComp)

	scCfg := scoring.Config{
		TrendScoreMax:   cfg.Scoring.TrendScoreMax,
		RiskPenaltyMax:  cfg.Scoring.RiskPenaltyMax,
		ReversionAdjMax: cfg.Scoring.ReversionAdjMax,
		ImpulseAdjMax:   cfg.Scoring.ImpulseAdjMax,
		NeutralShift:    cfg.Scoring.NeutralShift,
	}

	var rows []report.ScoreRow
	for _, name := range []string{"midcap100", "nifty50", "smallcap100"} {
		feat, ok := eqFeats[name]
		if !ok {
			continue
		}
		comps := scoring.Components(feat, scCfg)
		scored := scoring.Assemble(comps, probs, riskoffComp, scCfg)
		rows = append(rows, scoreRows(name, scored, riskoffComp, states, flags)...)
	}

	if err := report.WriteScoresCSV(filepath.Join(p.OutDir, "scores.csv"), rows); err != nil {
		return nil, err
	}

	if cfg.Output.WriteFeatures {
		for name, f := range eqFeats {
			if err := report.WriteFrameCSV(filepath.Join(p.OutDir, "features_"+name+".csv"), f); err != nil {
				return nil, err
			}
		}
		if err := report.WriteFrameCSV(filepath.Join(p.OutDir, "features_cross_asset.csv"), xasset); err != nil {
			return nil, err
		}
		if err := report.WriteFrameCSV(filepath.Join(p.OutDir, "features_model_X.csv"), modelX); err != nil {
			return nil, err
		}
	}

	if cfg.Output.XLSXReport != "" {
		xlsxPath := cfg.Output.XLSXReport
		if !filepath.IsAbs(xlsxPath) {
			xlsxPath = filepath.Join(p.OutDir, xlsxPath)
		}
		if err := report.WriteXLSX(xlsxPath, rows); err != nil {
			return nil, err
		}
	}

	if err := p.Recorder.RecordScores(latestSnapshots(rows)); err != nil {
		log.Printf("[ERROR] record score snapshots: %v", err)
	}

	log.Printf("[INFO] wrote %s (%d rows, %d cols) and %s (%d rows)",
		filepath.Join(p.OutDir, "aligned_prices.csv"), aligned.Len(), len(aligned.Names()),
		filepath.Join(p.OutDir, "scores.csv"), len(rows))

	return &Result{SeriesUsed: len(seriesMap), Rows: rows}, nil
}

// resolveSeries loads every configured series, applying the required/optional
// split: the anchor index is mandatory, everything else is best effort, and
// the India 10Y yield falls back to a bond proxy when no candidate serves.
func (p *Pipeline) resolveSeries(rsv *resolver.Resolver) (map[string]model.Series, error) {
	cfg := p.Config
	out := map[string]model.Series{}

	s, ok, err := rsv.Resolve("eq_nifty50", cfg.Tickers.Equities["nifty50"], true)
	if err != nil {
		return nil, err
	}
	if ok {
		out["eq_nifty50"] = s
	}

	for _, key := range []string{"midcap100", "smallcap100"} {
		if err := p.resolveOptional(rsv, out, "eq_"+key, cfg.Tickers.Equities[key]); err != nil {
			return nil, err
		}
	}
	for key, candidates := range cfg.Tickers.RiskOff {
		if err := p.resolveOptional(rsv, out, "ro_"+key, candidates); err != nil {
			return nil, err
		}
	}
	for _, key := range []string{"us10y", "us3m"} {
		if err := p.resolveOptional(rsv, out, "y_"+key, cfg.Tickers.Yields[key]); err != nil {
			return nil, err
		}
	}

	s, ok, err = rsv.Resolve("y_india10y", cfg.Tickers.Yields["india10y_candidates"], false)
	if err != nil {
		return nil, err
	}
	if ok {
		out["y_india10y"] = s
	} else if err := p.resolveOptional(rsv, out, "y_india_bond_proxy", cfg.Tickers.Yields["india_bond_proxy"]); err != nil {
		return nil, err
	}

	return out, nil
}

func (p *Pipeline) resolveOptional(rsv *resolver.Resolver, out map[string]model.Series, name string, candidates []string) error {
	s, ok, err := rsv.Resolve(name, candidates, false)
	if err != nil {
		return err
	}
	if ok {
		out[name] = s
	}
	return nil
}

// buildModelFrame joins the anchor-index context with the cross-asset block
// and adds the explicit divergence interaction: equities trending up while
// the risk-off composite rises.
func buildModelFrame(niftyFeat, xasset *model.Frame) *model.Frame {
	out := model.NewFrame(niftyFeat.Dates)
	for _, name := range modelColumns {
		if niftyFeat.Has(name) {
			out.Set(name, niftyFeat.MustCol(name))
		}
	}
	for _, name := range xasset.Names() {
		out.Set(name, xasset.MustCol(name))
	}

	if out.Has("riskoff_composite") {
		slopeZ := niftyFeat.MustCol("ema_slope_z")
		ratioZ := niftyFeat.MustCol("ema_ratio_z")
		comp := out.MustCol("riskoff_composite")
		interaction := model.NaNs(out.Len())
		for i := range interaction {
			trendUp := 0.0
			if slopeZ[i] > 0 && ratioZ[i] > 0 {
				trendUp = 1.0
			}
			interaction[i] = trendUp * comp[i]
		}
		out.Set("divergence_equity_up_riskoff", interaction)
	}
	return out
}

// walkForwardProbs drops all-missing rows before training and scatters the
// probabilities back onto the full index, leaving dropped rows missing.
func walkForwardProbs(modelX *model.Frame, labels []float64, rmCfg model.RiskModelConfig) []float64 {
	keep := make([]int, 0, modelX.Len())
	for i := 0; i < modelX.Len(); i++ {
		for _, v := range modelX.Row(i) {
			if !math.IsNaN(v) {
				keep = append(keep, i)
				break
			}
		}
	}

	filtered := model.NewFrame(pick(modelX.Dates, keep))
	for _, name := range modelX.Names() {
		filtered.Set(name, pick(modelX.MustCol(name), keep))
	}
	y := pick(labels, keep)

	probs := regime.WalkForward(filtered, y, rmCfg)

	full := model.NaNs(modelX.Len())
	for i, idx := range keep {
		full[idx] = probs[i]
	}
	return full
}

func pick[T any](src []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = src[j]
	}
	return out
}

func scoreRows(index string, scored *model.Frame, riskoffComp []float64, states []string, flags []bool) []report.ScoreRow {
	rows := make([]report.ScoreRow, 0, scored.Len())
	for i := 0; i < scored.Len(); i++ {
		comp := math.NaN()
		if riskoffComp != nil {
			comp = riskoffComp[i]
		}
		state := scoring.StateUnknown
		flag := false
		if states != nil {
			state = states[i]
			flag = flags[i]
		}
		score := scored.MustCol("score")[i]
		rows = append(rows, report.ScoreRow{
			Date:             scored.Dates[i],
			Index:            index,
			TrendScore:       scored.MustCol("trend_score")[i],
			ReversionAdj:     scored.MustCol("reversion_adj")[i],
			RSIUnit:          scored.MustCol("rsi_unit")[i],
			PriceZUnit:       scored.MustCol("pricez_unit")[i],
			TrendRaw:         scored.MustCol("trend_raw")[i],
			RiskOffProb:      scored.MustCol("risk_off_prob")[i],
			RiskPenalty:      scored.MustCol("risk_penalty")[i],
			Score:            score,
			Label:            scoring.Label(score),
			RiskoffComposite: comp,
			DivergenceState:  state,
			DivergenceFlag:   flag,
			ImpulseAdj:       scored.MustCol("impulse_adj")[i],
			ImpulseRaw:       scored.MustCol("impulse_raw")[i],
			RiskContext:      scored.MustCol("risk_context")[i],
			ReversionAdjEff:  scored.MustCol("reversion_adj_eff")[i],
			ImpulseAdjEff:    scored.MustCol("impulse_adj_eff")[i],
		})
	}
	return rows
}

// latestSnapshots picks each index's most recent scored day for persistence.
func latestSnapshots(rows []report.ScoreRow) []recorder.ScoreSnapshot {
	latest := map[string]report.ScoreRow{}
	for _, r := range rows {
		if math.IsNaN(r.Score) {
			continue
		}
		if cur, ok := latest[r.Index]; !ok || r.Date.After(cur.Date) {
			latest[r.Index] = r
		}
	}
	snaps := make([]recorder.ScoreSnapshot, 0, len(latest))
	for _, r := range latest {
		snaps = append(snaps, recorder.ScoreSnapshot{
			Date:             r.Date,
			Index:            r.Index,
			Score:            r.Score,
			Label:            r.Label,
			TrendScore:       r.TrendScore,
			RiskPenalty:      r.RiskPenalty,
			ReversionAdjEff:  r.ReversionAdjEff,
			ImpulseAdjEff:    r.ImpulseAdjEff,
			RiskOffProb:      r.RiskOffProb,
			RiskoffComposite: r.RiskoffComposite,
			DivergenceState:  r.DivergenceState,
			DivergenceFlag:   r.DivergenceFlag,
		})
	}
	return snaps
}
