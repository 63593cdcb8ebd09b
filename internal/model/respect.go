package model

import "time"

// EvaluationResult is the outcome for one SMA period on one symbol.
// TouchCount is zero whenever Respected is false.
type EvaluationResult struct {
	Period     int  `json:"period"`
	Respected  bool `json:"respected"`
	TouchCount int  `json:"touch_count"`
}

// SymbolReport holds every period result for one symbol. Err is set when the
// symbol's data could not be fetched; Results is then empty.
type SymbolReport struct {
	Symbol  string
	Candles int
	Results []EvaluationResult
	Err     error
}

// Respected returns the periods whose SMA was respected, in result order.
func (s SymbolReport) Respected() []int {
	var out []int
	for _, r := range s.Results {
		if r.Respected {
			out = append(out, r.Period)
		}
	}
	return out
}

// Report is the flat output of one analysis run.
type Report struct {
	Request     AnalysisRequest
	FetchStart  time.Time // start of the extended lookback range
	GeneratedAt time.Time
	Symbols     []SymbolReport
}

// Failed counts symbols that produced no data.
func (r *Report) Failed() int {
	n := 0
	for _, s := range r.Symbols {
		if s.Err != nil {
			n++
		}
	}
	return n
}
