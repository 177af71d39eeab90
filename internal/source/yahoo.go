package source

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"

	"TrendRadar/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance public chart API.
type YahooFetcher struct {
	Client *resty.Client
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &YahooFetcher{Client: client}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchDailyCloses fetches adjusted daily closes for [start, end]. Dates are
// normalized to a timezone-naive UTC calendar and sorted ascending; bars with
// no close at all are dropped. An empty window yields ErrNoData.
func (f *YahooFetcher) FetchDailyCloses(ticker string, start, end time.Time) (model.Series, error) {
	req := f.Client.R().
		SetQueryParam("interval", "1d").
		SetQueryParam("includeAdjustedClose", "true").
		SetQueryParam("events", "history")

	if start.IsZero() {
		req.SetQueryParam("period1", "0")
	} else {
		req.SetQueryParam("period1", fmt.Sprintf("%d", model.Day(start).Unix()))
	}
	effectiveEnd := end
	if effectiveEnd.IsZero() {
		effectiveEnd = time.Now()
	}
	// Yahoo's period2 is exclusive; push it one day past the inclusive end.
	req.SetQueryParam("period2", fmt.Sprintf("%d", model.Day(effectiveEnd).AddDate(0, 0, 1).Unix()))

	u := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s", url.PathEscape(ticker))
	resp, err := req.Get(u)
	if err != nil {
		return model.Series{}, fmt.Errorf("yahoo fetch %s: %w", ticker, err)
	}
	if resp.StatusCode() == 404 {
		return model.Series{}, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}
	if resp.StatusCode() != 200 {
		return model.Series{}, fmt.Errorf("yahoo %s: status %d, body: %s", ticker, resp.StatusCode(), resp.String())
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return model.Series{}, fmt.Errorf("yahoo decode %s: %w", ticker, err)
	}
	if chart.Chart.Error != nil {
		return model.Series{}, fmt.Errorf("yahoo api error for %s: %s", ticker, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return model.Series{}, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}

	result := chart.Chart.Result[0]

	// Prefer adjusted closes (splits/dividends folded in); fall back to raw.
	var closes []*float64
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) == len(result.Timestamp) {
		closes = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}
	if len(closes) != len(result.Timestamp) {
		return model.Series{}, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}

	series := model.Series{}
	for i, ts := range result.Timestamp {
		if closes[i] == nil {
			continue // null bar (holiday, halted session)
		}
		series.Dates = append(series.Dates, model.Day(time.Unix(ts, 0)))
		series.Values = append(series.Values, *closes[i])
	}
	if series.Empty() {
		return model.Series{}, fmt.Errorf("yahoo %s: %w", ticker, ErrNoData)
	}

	sort.Sort(byDate{&series})
	return dedupeAscending(series), nil
}

// byDate sorts a series in place by date.
type byDate struct{ s *model.Series }

func (b byDate) Len() int           { return b.s.Len() }
func (b byDate) Less(i, j int) bool { return b.s.Dates[i].Before(b.s.Dates[j]) }
func (b byDate) Swap(i, j int) {
	b.s.Dates[i], b.s.Dates[j] = b.s.Dates[j], b.s.Dates[i]
	b.s.Values[i], b.s.Values[j] = b.s.Values[j], b.s.Values[i]
}

// dedupeAscending drops repeated dates, keeping the last value seen. Yahoo
// occasionally returns the live session twice.
func dedupeAscending(s model.Series) model.Series {
	out := model.Series{}
	for i := range s.Dates {
		if n := len(out.Dates); n > 0 && out.Dates[n-1].Equal(s.Dates[i]) {
			out.Values[n-1] = s.Values[i]
			continue
		}
		out.Dates = append(out.Dates, s.Dates[i])
		out.Values = append(out.Values, s.Values[i])
	}
	return out
}
