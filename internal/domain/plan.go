package domain

// PlanTarget is one take-profit level of a PositionPlan, expressed as an
// R-multiple of the initial risked amount.
type PlanTarget struct {
	Price        float64 // Target price level
	Multiple     float64 // R-multiple relative to the stop distance (e.g. 2.0 for 2R)
	ProfitAmount float64 // Expected profit in quote currency if the target fills
}

// PositionPlan is a fully specified trade plan: entry, stop, size and
// targets, all derived from a single MarketSnapshot and AccountState.
// A plan is never mutated after computation; it is handed to the
// notification and persistence collaborators as a value and discarded.
type PositionPlan struct {
	Direction        TradeDirection
	EntryPrice       float64
	StopLossPrice    float64 // Entry minus (LONG) or plus (SHORT) the stop distance
	StopLossDistance float64 // ATR value times the configured ATR multiplier
	PositionSize     float64 // Units of the traded asset; 0 when DegenerateRisk is set
	PositionValue    float64 // PositionSize * EntryPrice, quote currency
	RiskAmount       float64 // Balance * risk-per-trade fraction, quote currency
	Targets          []PlanTarget

	// RealizedRiskMultiple is StopLossDistance expressed in ATR units.
	// It must equal the configured ATR multiplier; the calculator refuses
	// to emit a plan where it does not. Zero when DegenerateRisk is set.
	RealizedRiskMultiple float64

	// DegenerateRisk marks a plan computed from a zero ATR: the stop
	// distance is meaningless, so PositionSize is forced to zero and the
	// caller is expected to skip the signal rather than trade it.
	DegenerateRisk bool
}

// TargetPrices returns the target price levels in configuration order.
func (p *PositionPlan) TargetPrices() []float64 {
	prices := make([]float64, len(p.Targets))
	for i, t := range p.Targets {
		prices[i] = t.Price
	}
	return prices
}
