package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SMARespect/internal/model"
)

func bar(o, h, l, c float64) model.OHLCV {
	return model.OHLCV{Open: o, High: h, Low: l, Close: c}
}

func flat(p float64) model.OHLCV { return bar(p, p, p, p) }

func TestEvaluate_RespectedWithTouch(t *testing.T) {
	series := []model.OHLCV{
		bar(10, 12, 9, 11),
		bar(11, 13, 10, 12),
		bar(12, 14, 11, 13),
	}
	got := Evaluate(series, []int{3})
	want := []model.EvaluationResult{{Period: 3, Respected: true, TouchCount: 1}}
	assert.Equal(t, want, got)
}

func TestEvaluate_FullyBelowIsNotRespected(t *testing.T) {
	// closes 20, 11, 5 give an SMA of 12 at the only defined index
	series := []model.OHLCV{
		bar(19, 21, 18, 20),
		bar(12, 13, 10, 11),
		bar(5, 6, 4, 5),
	}
	got := Evaluate(series, []int{3})
	assert.False(t, got[0].Respected)
	assert.Zero(t, got[0].TouchCount, "touch count must be 0 when not respected")
}

func TestEvaluate_LaterViolationsDoNotChangeResult(t *testing.T) {
	series := []model.OHLCV{
		flat(10), flat(10),
		flat(1), // SMA(2)=5.5, first violation
		flat(10),
		flat(0.5), // SMA(2)=5.25, second violation
	}
	got := Evaluate(series, []int{2})
	assert.Equal(t, model.EvaluationResult{Period: 2}, got[0])
}

func TestEvaluate_StrictComparisons(t *testing.T) {
	tests := []struct {
		name      string
		series    []model.OHLCV
		period    int
		respected bool
		touches   int
	}{
		{
			name:      "candle equal to average is not below",
			series:    []model.OHLCV{flat(10), flat(10)},
			period:    2,
			respected: true,
			touches:   0,
		},
		{
			name:      "high equal to average is not a touch",
			series:    []model.OHLCV{bar(9, 10, 8, 10)},
			period:    1,
			respected: true,
			touches:   0,
		},
		{
			name:      "low equal to average is not a touch",
			series:    []model.OHLCV{bar(11, 12, 10, 10)},
			period:    1,
			respected: true,
			touches:   0,
		},
		{
			name:      "strict straddle is a touch",
			series:    []model.OHLCV{bar(9, 11, 8, 10)},
			period:    1,
			respected: true,
			touches:   1,
		},
		{
			name:      "close below but high above is not a violation",
			series:    []model.OHLCV{flat(10), flat(10), bar(9, 10.5, 8, 9)},
			period:    2,
			respected: true,
			touches:   1, // SMA(2)=9.5 at index 2
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.series, []int{tt.period})[0]
			assert.Equal(t, tt.respected, got.Respected)
			assert.Equal(t, tt.touches, got.TouchCount)
		})
	}
}

func TestEvaluate_UndefinedAverageIsSkipped(t *testing.T) {
	// The first two candles would be far below any average, but period 3 has
	// no value there.
	series := []model.OHLCV{flat(1), flat(1), flat(100), flat(100), flat(100)}
	got := Evaluate(series, []int{3})[0]
	assert.True(t, got.Respected, "violations before the first SMA value are ignored")
}

func TestEvaluate_InsufficientHistoryIsVacuous(t *testing.T) {
	series := []model.OHLCV{flat(10), flat(9), flat(8)}
	for _, p := range []int{4, 233} {
		got := Evaluate(series, []int{p})[0]
		assert.Equal(t, model.EvaluationResult{Period: p, Respected: true}, got)
	}

	got := Evaluate(nil, []int{34})
	assert.Equal(t, []model.EvaluationResult{{Period: 34, Respected: true}}, got)
}

func TestEvaluateFrom_FlatCandleOnAverageAfterNoisyHistory(t *testing.T) {
	closes := []float64{0.1, 0.7, 0.2, 0.9, 0.3, 0.1, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3}
	series := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		series[i] = flat(c)
	}
	got := EvaluateFrom(series, []int{3}, len(series)-1)[0]
	assert.Equal(t, model.EvaluationResult{Period: 3, Respected: true}, got)
}

func TestEvaluate_ExactLengthSeries(t *testing.T) {
	series := []model.OHLCV{flat(10), flat(12), bar(13, 15, 10, 14)}
	got := Evaluate(series, []int{3})[0]
	// SMA(3) = 12 at index 2, candle straddles it
	assert.Equal(t, model.EvaluationResult{Period: 3, Respected: true, TouchCount: 1}, got)
}

func TestEvaluate_OutputFollowsPeriodOrder(t *testing.T) {
	series := make([]model.OHLCV, 60)
	for i := range series {
		series[i] = flat(float64(100 + i))
	}
	periods := []int{50, 3, 34, 1}
	got := Evaluate(series, periods)
	require.Len(t, got, len(periods))
	for i, p := range periods {
		assert.Equal(t, p, got[i].Period, "result %d", i)
		assert.True(t, got[i].Respected, "rising series should respect period %d", p)
	}
}

func TestEvaluate_TouchCountMonotonic(t *testing.T) {
	const n = 20
	prev := -1
	for k := 0; k <= n-2; k++ {
		series := make([]model.OHLCV, n)
		for i := range series {
			series[i] = flat(100)
		}
		// straddling candles keep the close at 100 so the average never moves
		for i := 2; i < 2+k; i++ {
			series[i] = bar(100, 102, 98, 100)
		}
		got := Evaluate(series, []int{3})[0]
		require.True(t, got.Respected, "k=%d", k)
		require.GreaterOrEqual(t, got.TouchCount, prev, "k=%d", k)
		assert.Equal(t, k, got.TouchCount, "k=%d", k)
		prev = got.TouchCount
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	series := []model.OHLCV{
		bar(10, 12, 9, 11), bar(11, 13, 10, 12), bar(12, 14, 11, 13),
		bar(13, 14, 10, 11), bar(11, 12, 9, 10), bar(8, 9, 7, 8),
	}
	periods := DefaultPeriods()
	periods = append(periods, 2, 3)
	first := Evaluate(series, periods)
	second := Evaluate(series, periods)
	assert.Equal(t, first, second)
}

func TestEvaluateFrom_LookbackExcludedFromScan(t *testing.T) {
	series := []model.OHLCV{
		flat(10), flat(10),
		flat(1), // violation inside the lookback
		flat(10),
		flat(10),
	}
	require.False(t, Evaluate(series, []int{2})[0].Respected, "full scan should see the violation")
	// SMA(2)=5.5 at index 3 is below the flat candle: no straddle
	got := EvaluateFrom(series, []int{2}, 3)[0]
	assert.Equal(t, model.EvaluationResult{Period: 2, Respected: true}, got)

	beyond := EvaluateFrom(series, []int{2}, 10)[0]
	assert.Equal(t, model.EvaluationResult{Period: 2, Respected: true}, beyond, "empty scan range is vacuous")
}

func TestDefaultPeriods_FreshCopy(t *testing.T) {
	a := DefaultPeriods()
	a[0] = 1
	b := DefaultPeriods()
	require.Equal(t, 34, b[0], "default periods were mutated through a returned slice")
	assert.Len(t, b, 8)
}

func TestRespectedOnly(t *testing.T) {
	in := []model.EvaluationResult{
		{Period: 34, Respected: true, TouchCount: 2},
		{Period: 50},
		{Period: 55, Respected: true},
	}
	got := RespectedOnly(in)
	assert.Equal(t, []model.EvaluationResult{
		{Period: 34, Respected: true, TouchCount: 2},
		{Period: 55, Respected: true},
	}, got)
	assert.Len(t, in, 3, "input must not be modified")
}
