package model

import (
	"fmt"
	"strings"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Interval is the candle timeframe requested from a data provider.
type Interval string

const (
	IntervalDaily   Interval = "1d"
	IntervalWeekly  Interval = "1wk"
	IntervalMonthly Interval = "1mo"
)

// ParseInterval accepts the provider codes and their long names.
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1d", "d", "daily":
		return IntervalDaily, nil
	case "1wk", "w", "weekly":
		return IntervalWeekly, nil
	case "1mo", "m", "monthly":
		return IntervalMonthly, nil
	default:
		return "", fmt.Errorf("%w: unsupported interval %q", ErrInvalidInput, s)
	}
}

// NormalizeSymbol upper-cases and trims a ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
