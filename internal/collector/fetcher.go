package collector

import (
	"context"
	"errors"
	"time"

	"SMARespect/internal/model"
)

// ErrDataUnavailable is returned when a provider has no candles for a symbol,
// typically a delisted or mistyped ticker.
var ErrDataUnavailable = errors.New("data unavailable")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchCandles returns chronologically ordered candles in [start, end).
	FetchCandles(ctx context.Context, symbol string, start, end time.Time, interval model.Interval) ([]model.OHLCV, error)
	Name() string
}
