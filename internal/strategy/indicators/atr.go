// Package indicators computes the technical indicators the signal
// analyzer scores: moving averages, RSI, MACD and ATR. All functions
// operate on chronologically ordered klines and return the most recent
// indicator value.
package indicators

import (
	"fmt"
	"math"

	"btcSignalBot/internal/domain"
)

// ATR computes the Average True Range over the given period using
// Wilder's smoothing method.
func ATR(klines []*domain.Kline, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("ATR period must be positive, got %d", period)
	}
	if len(klines) < period+1 {
		return 0, fmt.Errorf("not enough data points for ATR calculation: need %d, got %d", period+1, len(klines))
	}

	trueRanges := make([]float64, len(klines))

	// First TR is just the high-low range; no previous close exists.
	trueRanges[0] = klines[0].High - klines[0].Low

	for i := 1; i < len(klines); i++ {
		high := klines[i].High
		low := klines[i].Low
		prevClose := klines[i-1].Close

		// True Range is the greatest of the bar range and the gaps
		// against the previous close.
		tr := high - low
		if gap := math.Abs(high - prevClose); gap > tr {
			tr = gap
		}
		if gap := math.Abs(low - prevClose); gap > tr {
			tr = gap
		}
		trueRanges[i] = tr
	}

	// Seed with the simple average of the first 'period' true ranges,
	// then apply Wilder's smoothing for the remainder.
	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trueRanges[i]
	}
	atr /= float64(period)

	for i := period; i < len(klines); i++ {
		atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
	}

	return atr, nil
}
