package domain

// MarketSnapshot captures the market state a trade plan is computed from.
// Both values come from the same evaluation cycle so that every derived
// number in a PositionPlan traces back to one consistent observation.
type MarketSnapshot struct {
	EntryPrice float64 // Proposed entry price, must be positive
	ATRValue   float64 // Average True Range over the configured lookback, non-negative
}

// AccountState is the account view used for position sizing.
type AccountState struct {
	Balance float64 // Available balance in quote currency, non-negative
}
