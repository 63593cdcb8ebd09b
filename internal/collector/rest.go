package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"SMARespect/internal/model"
)

// RESTFetcher implements Fetcher against a bars REST API that speaks
// GET {base}/api/v1/bars?symbol=&interval=&from=&to= and returns a JSON array.
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	logger  zerolog.Logger
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, logger zerolog.Logger) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
		logger:  logger.With().Str("fetcher", "rest").Logger(),
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bars API.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// FetchCandles requests bars at the given interval. Providers that only serve
// daily bars are handled by aggregating daily data into weekly or monthly bars.
func (f *RESTFetcher) FetchCandles(ctx context.Context, symbol string, start, end time.Time, interval model.Interval) ([]model.OHLCV, error) {
	bars, err := f.fetchBars(ctx, symbol, start, end, interval)
	if err == nil || interval == model.IntervalDaily || ctx.Err() != nil {
		return bars, err
	}

	f.logger.Warn().Err(err).Str("symbol", symbol).Str("interval", string(interval)).
		Msg("interval fetch failed, aggregating daily bars")
	daily, dailyErr := f.fetchBars(ctx, symbol, start, end, model.IntervalDaily)
	if dailyErr != nil {
		return nil, fmt.Errorf("%s fetch failed: %w; daily fallback also failed: %w", interval, err, dailyErr)
	}
	if interval == model.IntervalMonthly {
		return aggregateDailyToMonthly(daily), nil
	}
	return aggregateDailyToWeekly(daily), nil
}

func (f *RESTFetcher) fetchBars(ctx context.Context, symbol string, start, end time.Time, interval model.Interval) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", string(interval))
	q.Set("from", fmt.Sprintf("%d", start.Unix()))
	q.Set("to", fmt.Sprintf("%d", end.Unix()))
	endpoint := fmt.Sprintf("%s/api/v1/bars?%s", f.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("fetch bars %s: %w", symbol, ErrDataUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var raw []restBar
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("fetch bars %s: %w", symbol, ErrDataUnavailable)
	}
	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// aggregateDailyToWeekly converts daily bars into ISO-week bars.
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	return aggregate(daily, func(t time.Time) int {
		year, week := t.ISOWeek()
		return year*100 + week
	})
}

// aggregateDailyToMonthly converts daily bars into calendar-month bars.
func aggregateDailyToMonthly(daily []model.OHLCV) []model.OHLCV {
	return aggregate(daily, func(t time.Time) int {
		return t.Year()*100 + int(t.Month())
	})
}

// aggregate merges consecutive bars sharing a bucket key. The merged bar keeps
// the first bar's time and open and the last bar's close.
func aggregate(daily []model.OHLCV, bucket func(time.Time) int) []model.OHLCV {
	if len(daily) == 0 {
		return nil
	}
	var out []model.OHLCV
	cur := daily[0]
	curKey := bucket(cur.Time)

	for _, d := range daily[1:] {
		if key := bucket(d.Time); key != curKey {
			out = append(out, cur)
			cur, curKey = d, key
			continue
		}
		if d.High > cur.High {
			cur.High = d.High
		}
		if d.Low < cur.Low {
			cur.Low = d.Low
		}
		cur.Close = d.Close
		cur.Volume += d.Volume
	}
	return append(out, cur)
}
