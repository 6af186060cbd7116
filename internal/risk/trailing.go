package risk

import (
	"btcSignalBot/internal/domain"
)

// TrailingStop is a recommended stop adjustment for an open position.
type TrailingStop struct {
	StopPrice    float64 // The recommended new stop level
	ProfitLocked bool    // The new stop sits on the profitable side of the entry
}

// ComputeTrailingStop recommends a tighter stop for an open position once
// price has moved at least one stop distance (ATR * multiplier) in its
// favor. The recommended stop trails the current price by that same
// distance and is only emitted when it locks in profit, i.e. sits beyond
// the entry price. Returns nil when no adjustment is warranted or the
// inputs are unusable.
func ComputeTrailingStop(pos *domain.OpenPosition, currentPrice, atrValue, atrMultiplier float64) *TrailingStop {
	if pos == nil || !pos.Direction.IsValid() {
		return nil
	}
	if pos.EntryPrice <= 0 || currentPrice <= 0 || atrValue <= 0 || atrMultiplier <= 0 {
		return nil
	}

	distance := atrValue * atrMultiplier

	switch pos.Direction {
	case domain.Long:
		if currentPrice > pos.EntryPrice+distance {
			newStop := currentPrice - distance
			if newStop > pos.EntryPrice {
				return &TrailingStop{StopPrice: newStop, ProfitLocked: true}
			}
		}
	case domain.Short:
		if currentPrice < pos.EntryPrice-distance {
			newStop := currentPrice + distance
			if newStop < pos.EntryPrice {
				return &TrailingStop{StopPrice: newStop, ProfitLocked: true}
			}
		}
	}
	return nil
}
