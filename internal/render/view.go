package render

import (
	"time"

	"SMARespect/internal/model"
	"SMARespect/internal/strategy"
)

// SymbolView is the JSON shape of one symbol's results.
type SymbolView struct {
	Symbol  string                   `json:"symbol"`
	Candles int                      `json:"candles"`
	Results []model.EvaluationResult `json:"results"`
	Error   string                   `json:"error,omitempty"`
}

// ReportView is the JSON shape of a report. End is the last included date.
type ReportView struct {
	Start       string       `json:"start"`
	End         string       `json:"end"`
	Interval    string       `json:"interval"`
	Periods     []int        `json:"periods"`
	FetchStart  string       `json:"fetch_start"`
	GeneratedAt time.Time    `json:"generated_at"`
	Symbols     []SymbolView `json:"symbols"`
}

// View converts r for JSON output.
func View(r *model.Report, onlyRespected bool) ReportView {
	v := ReportView{
		Start:       r.Request.Start.Format(dateLayout),
		End:         r.Request.End.AddDate(0, 0, -1).Format(dateLayout),
		Interval:    string(r.Request.Interval),
		Periods:     r.Request.Periods,
		FetchStart:  r.FetchStart.Format(dateLayout),
		GeneratedAt: r.GeneratedAt,
		Symbols:     make([]SymbolView, 0, len(r.Symbols)),
	}
	for _, s := range r.Symbols {
		sv := SymbolView{Symbol: s.Symbol, Candles: s.Candles, Results: s.Results}
		if onlyRespected {
			sv.Results = strategy.RespectedOnly(s.Results)
		}
		if sv.Results == nil {
			sv.Results = []model.EvaluationResult{}
		}
		if s.Err != nil {
			sv.Error = s.Err.Error()
		}
		v.Symbols = append(v.Symbols, sv)
	}
	return v
}
