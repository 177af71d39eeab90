package resolver

import (
	"errors"
	"fmt"
	"log"
	"time"

	"TrendRadar/internal/model"
	"TrendRadar/internal/source"
	"TrendRadar/internal/store"
)

// ErrNoCandidates means a required logical series has no tickers configured.
var ErrNoCandidates = errors.New("resolver: no candidate tickers configured")

// ErrAllCandidatesFailed means every configured ticker failed or came back
// empty for a required logical series.
var ErrAllCandidatesFailed = errors.New("resolver: all candidate tickers failed")

// Resolver turns a logical series name plus an ordered candidate-ticker list
// into one usable price series, trying cache then source per candidate.
// Proxies for an index are frequently delisted or rate-limited on the data
// provider, so the fallback chain trades a little staleness risk for
// resilience; for required series that resilience is never silent.
type Resolver struct {
	Store   *store.Store
	Fetcher source.Fetcher
	Start   time.Time // zero = from earliest available
	End     time.Time // zero = up to latest available
	Refresh bool
	Now     func() time.Time // injected clock; defaults to time.Now
}

// Resolve returns the first usable series among the candidates. The second
// return value reports whether a series was found; optional series may come
// back absent without error.
func (r *Resolver) Resolve(name string, candidates []string, required bool) (model.Series, bool, error) {
	if len(candidates) == 0 {
		if required {
			return model.Series{}, false, fmt.Errorf("required series %q: %w", name, ErrNoCandidates)
		}
		return model.Series{}, false, nil
	}

	var lastErr error
	for _, ticker := range candidates {
		series, ok, err := r.tryCandidate(ticker)
		if err != nil {
			var mce *store.MalformedCacheError
			if errors.As(err, &mce) {
				// Corrupted history is an operator problem, not a fallback case.
				return model.Series{}, false, fmt.Errorf("series %q: %w", name, err)
			}
			log.Printf("[WARN] series %q: candidate %s failed: %v", name, ticker, err)
			lastErr = err
			continue
		}
		if !ok {
			continue
		}
		return series, true, nil
	}

	if required {
		if lastErr != nil {
			return model.Series{}, false, fmt.Errorf("required series %q (candidates %v): %w: %w", name, candidates, ErrAllCandidatesFailed, lastErr)
		}
		return model.Series{}, false, fmt.Errorf("required series %q (candidates %v): %w", name, candidates, ErrAllCandidatesFailed)
	}
	log.Printf("[WARN] could not load series %q from candidates %v, skipping", name, candidates)
	return model.Series{}, false, nil
}

// tryCandidate runs the cache-then-source pipeline for one ticker. ok=false
// with nil error means the candidate yielded an empty series.
func (r *Resolver) tryCandidate(ticker string) (model.Series, bool, error) {
	cached, haveCache, err := r.Store.Read(ticker)
	if err != nil {
		return model.Series{}, false, err
	}

	merged := cached
	if r.needFetch(cached, haveCache) {
		incoming, err := r.Fetcher.FetchDailyCloses(ticker, r.fetchStart(cached, haveCache), r.End)
		if err != nil {
			if haveCache && !cached.Empty() {
				// Stale but real data beats no data; the provider may recover
				// on the next run.
				log.Printf("[WARN] fetch %s failed (%v), falling back to cached history through %s",
					ticker, err, cached.LastDate().Format("2006-01-02"))
			} else {
				return model.Series{}, false, err
			}
		} else {
			merged, err = r.Store.MergeAndWrite(ticker, cached, incoming)
			if err != nil {
				return model.Series{}, false, err
			}
		}
	}

	if merged.DropNaN().Empty() {
		return model.Series{}, false, nil
	}
	return merged, true, nil
}

// needFetch decides whether the cache already covers the requested window.
// Skipping is an optimization only: it must never return stale data for a
// window the caller explicitly bounded.
func (r *Resolver) needFetch(cached model.Series, haveCache bool) bool {
	if r.Refresh || !haveCache || cached.Empty() {
		return true
	}
	return cached.LastDate().Before(r.effectiveEnd())
}

// fetchStart returns the incremental window start: the day after the cache's
// trailing edge, so reruns never re-download history they already hold.
func (r *Resolver) fetchStart(cached model.Series, haveCache bool) time.Time {
	if r.Refresh || !haveCache || cached.Empty() {
		return r.Start
	}
	return cached.LastDate().AddDate(0, 0, 1)
}

func (r *Resolver) effectiveEnd() time.Time {
	if !r.End.IsZero() {
		return model.Day(r.End)
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return model.Day(now())
}
