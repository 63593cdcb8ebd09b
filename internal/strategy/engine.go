package strategy

import (
	"SMARespect/internal/calculator"
	"SMARespect/internal/model"
)

// DefaultPeriods returns the Fibonacci-derived SMA periods analysed when the
// caller does not choose its own. Each call returns a fresh slice.
func DefaultPeriods() []int {
	return []int{34, 50, 55, 89, 100, 144, 200, 233}
}

// Evaluate reports, for every period in order, whether the series respected
// that SMA and how often price straddled it.
func Evaluate(series []model.OHLCV, periods []int) []model.EvaluationResult {
	return EvaluateFrom(series, periods, 0)
}

// EvaluateFrom is Evaluate with the scan restricted to candles at index from
// or later. Candles before from still feed the moving average.
func EvaluateFrom(series []model.OHLCV, periods []int, from int) []model.EvaluationResult {
	if from < 0 {
		from = 0
	}
	closes := calculator.Closes(series)
	results := make([]model.EvaluationResult, 0, len(periods))
	for _, p := range periods {
		results = append(results, evaluatePeriod(series, closes, p, from))
	}
	return results
}

func evaluatePeriod(series []model.OHLCV, closes []float64, period, from int) model.EvaluationResult {
	res := model.EvaluationResult{Period: period}
	sma := calculator.SMASeries(closes, period)

	// Only indices with a full trailing window are comparable.
	start := period - 1
	if start < from {
		start = from
	}
	if period <= 0 {
		start = len(series)
	}

	for i := start; i < len(series); i++ {
		if closedBelow(series[i], sma[i]) {
			return res
		}
	}
	res.Respected = true

	for i := start; i < len(series); i++ {
		if straddles(series[i], sma[i]) {
			res.TouchCount++
		}
	}
	return res
}

// closedBelow is true when the whole candle sits strictly under the average.
func closedBelow(c model.OHLCV, sma float64) bool {
	return c.Open < sma && c.High < sma && c.Low < sma && c.Close < sma
}

func straddles(c model.OHLCV, sma float64) bool {
	return c.Low < sma && c.High > sma
}

// RespectedOnly filters results down to respected periods.
func RespectedOnly(results []model.EvaluationResult) []model.EvaluationResult {
	out := make([]model.EvaluationResult, 0, len(results))
	for _, r := range results {
		if r.Respected {
			out = append(out, r)
		}
	}
	return out
}
