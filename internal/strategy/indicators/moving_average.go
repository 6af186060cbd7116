package indicators

import (
	"fmt"

	"btcSignalBot/internal/domain"
)

// SMA computes the Simple Moving Average of closing prices over the last
// 'period' klines.
func SMA(klines []*domain.Kline, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("SMA period must be positive, got %d", period)
	}
	if len(klines) < period {
		return 0, fmt.Errorf("not enough data (%d) to calculate SMA for period %d", len(klines), period)
	}

	total := 0.0
	for i := len(klines) - period; i < len(klines); i++ {
		total += klines[i].Close
	}
	return total / float64(period), nil
}

// EMA computes the Exponential Moving Average of closing prices, seeded
// with the SMA of the first 'period' values.
func EMA(klines []*domain.Kline, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("EMA period must be positive, got %d", period)
	}
	if len(klines) < period {
		return 0, fmt.Errorf("not enough data (%d) to calculate EMA for period %d", len(klines), period)
	}

	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
	}
	series := emaSeries(closes, period)
	return series[len(series)-1], nil
}

// emaSeries computes the EMA over a value series. Entries before index
// period-1 are zero; index period-1 holds the SMA seed.
func emaSeries(values []float64, period int) []float64 {
	series := make([]float64, len(values))

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	series[period-1] = seed / float64(period)

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		series[i] = (values[i]-series[i-1])*multiplier + series[i-1]
	}
	return series
}
