package ports

import (
	"context"

	"btcSignalBot/internal/domain"
)

// SignalStrategy evaluates market data and grades it into a Signal.
type SignalStrategy interface {
	// RequiredDataPoints returns the minimum number of klines needed for the evaluation.
	RequiredDataPoints() int

	// Evaluate scores the current market state. It always returns a
	// signal (possibly Neutral); callers use Signal.Actionable to decide
	// whether to plan a trade.
	Evaluate(ctx context.Context, klines []*domain.Kline, currentPrice float64) (*domain.Signal, error)
}
