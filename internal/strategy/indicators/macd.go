package indicators

import (
	"fmt"

	"btcSignalBot/internal/domain"
)

// MACDResult holds the three components of the MACD indicator.
type MACDResult struct {
	Line      float64 // Fast EMA minus slow EMA
	Signal    float64 // EMA of the MACD line over the signal period
	Histogram float64 // Line minus Signal
}

// MACD computes Moving Average Convergence/Divergence with the given
// fast, slow and signal periods (conventionally 12/26/9).
func MACD(klines []*domain.Kline, fastPeriod, slowPeriod, signalPeriod int) (MACDResult, error) {
	if fastPeriod <= 0 || slowPeriod <= 0 || signalPeriod <= 0 {
		return MACDResult{}, fmt.Errorf("MACD periods must be positive, got %d/%d/%d", fastPeriod, slowPeriod, signalPeriod)
	}
	if fastPeriod >= slowPeriod {
		return MACDResult{}, fmt.Errorf("MACD fast period %d must be less than slow period %d", fastPeriod, slowPeriod)
	}
	required := slowPeriod + signalPeriod - 1
	if len(klines) < required {
		return MACDResult{}, fmt.Errorf("not enough data (%d) to calculate MACD %d/%d/%d: need %d", len(klines), fastPeriod, slowPeriod, signalPeriod, required)
	}

	closes := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
	}

	fast := emaSeries(closes, fastPeriod)
	slow := emaSeries(closes, slowPeriod)

	// The MACD line is defined once the slow EMA is seeded.
	macdLine := make([]float64, 0, len(closes)-slowPeriod+1)
	for i := slowPeriod - 1; i < len(closes); i++ {
		macdLine = append(macdLine, fast[i]-slow[i])
	}

	signalSeries := emaSeries(macdLine, signalPeriod)

	line := macdLine[len(macdLine)-1]
	signal := signalSeries[len(signalSeries)-1]
	return MACDResult{
		Line:      line,
		Signal:    signal,
		Histogram: line - signal,
	}, nil
}
