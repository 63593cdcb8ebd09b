package collector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"SMARespect/internal/metrics"
	"SMARespect/internal/model"
	"SMARespect/internal/strategy"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price  float64
	Bars   map[string][]model.OHLCV // per-symbol series, returned as-is
	Errors map[string]error         // per-symbol failures

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCandles(ctx context.Context, symbol string, start, end time.Time, interval model.Interval) ([]model.OHLCV, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[symbol]++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errors[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.Bars[symbol]; ok {
		return bars, nil
	}
	return generateMockBars(m.Price, start, end, interval), nil
}

// Calls reports how many times symbol was requested.
func (m *MockFetcher) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// generateMockBars produces a gently rising series, one bar per interval step.
func generateMockBars(basePrice float64, start, end time.Time, interval model.Interval) []model.OHLCV {
	if basePrice == 0 {
		basePrice = 100
	}
	var bars []model.OHLCV
	i := 0
	for ts := start; ts.Before(end); ts = step(ts, interval) {
		p := basePrice * (1 + float64(i)*0.001)
		bars = append(bars, model.OHLCV{
			Time:   ts,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}

func step(t time.Time, interval model.Interval) time.Time {
	switch interval {
	case model.IntervalWeekly:
		return t.AddDate(0, 0, 7)
	case model.IntervalMonthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// LookbackStart returns the extended fetch start so that an SMA of maxPeriod
// candles is defined from start onwards. The span is never shorter than
// minDays calendar days.
func LookbackStart(start time.Time, interval model.Interval, maxPeriod, minDays int) time.Time {
	var days int
	switch interval {
	case model.IntervalWeekly:
		days = maxPeriod*7 + 14
	case model.IntervalMonthly:
		days = maxPeriod*31 + 31
	default:
		// ~5 sessions per 7 days plus room for exchange holidays
		days = maxPeriod*3/2 + 7
	}
	if days < minDays {
		days = minDays
	}
	return start.AddDate(0, 0, -days)
}

// Options tunes a Collector.
type Options struct {
	Concurrency     int // parallel symbol fetches, minimum 1
	MinLookbackDays int
}

// Collector orchestrates data fetching and SMA respect evaluation.
type Collector struct {
	Fetcher Fetcher
	Metrics *metrics.Metrics

	opts   Options
	logger zerolog.Logger
	now    func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, opts Options, m *metrics.Metrics, logger zerolog.Logger) *Collector {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MinLookbackDays < 0 {
		opts.MinLookbackDays = 0
	}
	return &Collector{
		Fetcher: fetcher,
		Metrics: m,
		opts:    opts,
		logger:  logger.With().Str("component", "collector").Logger(),
		now:     time.Now,
	}
}

// Collect validates req, fetches every symbol and evaluates it. Invalid
// requests fail before any fetch. A symbol whose data cannot be fetched is
// reported with Err set and does not stop the others.
func (c *Collector) Collect(ctx context.Context, req model.AnalysisRequest) (*model.Report, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	began := c.now()
	fetchStart := LookbackStart(req.Start, req.Interval, req.MaxPeriod(), c.opts.MinLookbackDays)
	c.logger.Info().
		Int("symbols", len(req.Symbols)).
		Str("interval", string(req.Interval)).
		Time("fetch_start", fetchStart).
		Time("start", req.Start).
		Time("end", req.End).
		Msg("collecting report")

	out := make([]model.SymbolReport, len(req.Symbols))
	var g errgroup.Group
	g.SetLimit(c.opts.Concurrency)
	for i, sym := range req.Symbols {
		i, sym := i, sym
		g.Go(func() error {
			out[i] = c.collectSymbol(ctx, req, fetchStart, sym)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	report := &model.Report{
		Request:     req,
		FetchStart:  fetchStart,
		GeneratedAt: c.now(),
		Symbols:     out,
	}
	c.Metrics.ObserveReport(len(out), c.now().Sub(began))
	c.logger.Info().Int("symbols", len(out)).Int("failed", report.Failed()).Msg("report ready")
	return report, nil
}

func (c *Collector) collectSymbol(ctx context.Context, req model.AnalysisRequest, fetchStart time.Time, symbol string) model.SymbolReport {
	sr := model.SymbolReport{Symbol: symbol}

	bars, err := c.Fetcher.FetchCandles(ctx, symbol, fetchStart, req.End, req.Interval)
	if err == nil && len(bars) == 0 {
		err = fmt.Errorf("%s: %w", symbol, ErrDataUnavailable)
	}
	c.Metrics.ObserveFetch(c.Fetcher.Name(), err)
	if err != nil {
		c.logger.Warn().Err(err).Str("symbol", symbol).Msg("skipping symbol")
		sr.Err = err
		return sr
	}

	from := sort.Search(len(bars), func(i int) bool { return !bars[i].Time.Before(req.Start) })
	sr.Candles = len(bars)
	sr.Results = strategy.EvaluateFrom(bars, req.Periods, from)
	c.Metrics.ObserveResults(sr.Results)

	c.logger.Debug().
		Str("symbol", symbol).
		Int("candles", len(bars)).
		Int("window_from", from).
		Ints("respected", sr.Respected()).
		Msg("evaluated")
	return sr
}
