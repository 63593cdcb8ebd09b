package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SMARespect/internal/model"
)

// Metrics holds the Prometheus collectors for report runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	FetchTotal       *prometheus.CounterVec // labels: source, result
	EvaluationsTotal *prometheus.CounterVec // labels: respected
	ReportDuration   prometheus.Histogram
	SymbolsPerReport prometheus.Histogram
}

// New registers and returns all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sma_fetch_total",
			Help: "Candle series fetches by data source and result",
		}, []string{"source", "result"}),
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sma_evaluations_total",
			Help: "SMA period evaluations by outcome",
		}, []string{"respected"}),
		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sma_report_duration_seconds",
			Help:    "Wall time of a full report run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		SymbolsPerReport: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sma_report_symbols",
			Help:    "Number of symbols analysed per report",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),
	}
	m.Registry.MustRegister(
		m.FetchTotal,
		m.EvaluationsTotal,
		m.ReportDuration,
		m.SymbolsPerReport,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ObserveFetch counts one fetch attempt.
func (m *Metrics) ObserveFetch(source string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.FetchTotal.WithLabelValues(source, result).Inc()
}

// ObserveResults counts evaluated periods.
func (m *Metrics) ObserveResults(results []model.EvaluationResult) {
	if m == nil {
		return
	}
	for _, r := range results {
		m.EvaluationsTotal.WithLabelValues(strconv.FormatBool(r.Respected)).Inc()
	}
}

// ObserveReport records a finished run.
func (m *Metrics) ObserveReport(symbols int, took time.Duration) {
	if m == nil {
		return
	}
	m.ReportDuration.Observe(took.Seconds())
	m.SymbolsPerReport.Observe(float64(symbols))
}
