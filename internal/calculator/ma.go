package calculator

import (
	"errors"
	"math"

	"SMARespect/internal/model"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the simple moving average at every index of prices.
// Indices before period-1 have no trailing window and hold NaN. A series
// shorter than period, or a non-positive period, yields all NaN.
//
// Every value is summed from its own window; a running total would drift and
// break exact comparisons against candle prices.
func SMASeries(prices []float64, period int) []float64 {
	out := make([]float64, len(prices))
	for i := range out {
		v, err := CalculateSMA(prices[:i+1], period)
		if err != nil {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// Closes extracts closing prices in bar order.
func Closes(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
