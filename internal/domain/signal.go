package domain

import "time"

// SignalStrength grades the combined indicator score of one evaluation.
type SignalStrength string

const (
	StrongBuy  SignalStrength = "STRONG_BUY"
	WeakBuy    SignalStrength = "WEAK_BUY"
	Neutral    SignalStrength = "NEUTRAL"
	WeakSell   SignalStrength = "WEAK_SELL"
	StrongSell SignalStrength = "STRONG_SELL"
)

// Direction maps a strength onto a trade direction. Only the strong
// variants are actionable; ok is false for everything else.
func (s SignalStrength) Direction() (TradeDirection, bool) {
	switch s {
	case StrongBuy:
		return Long, true
	case StrongSell:
		return Short, true
	}
	return "", false
}

// Signal is the outcome of one strategy evaluation over the kline cache.
type Signal struct {
	Symbol   string
	Strength SignalStrength
	Score    int     // Weighted indicator score in [-100, 100]
	Price    float64 // Close price the evaluation was made at
	Reason   string  // Human-readable summary of the contributing indicators
	Time     time.Time
}

// Actionable reports whether the signal is strong enough to plan a trade.
func (s *Signal) Actionable() bool {
	_, ok := s.Strength.Direction()
	return ok
}

// SignalRecord is a persisted signal together with the plan computed for
// it (nil when the plan was rejected or the signal was only logged).
type SignalRecord struct {
	ID        int64
	Signal    Signal
	Plan      *PositionPlan
	CreatedAt time.Time
}
