package domain

// TradeDirection is the side of a proposed trade.
// It is a closed two-variant enumeration; no code path treats an unknown
// value as a silently-defaulted long or short.
type TradeDirection string

const (
	Long  TradeDirection = "LONG"
	Short TradeDirection = "SHORT"
)

// IsValid reports whether the direction is one of the two known variants.
func (d TradeDirection) IsValid() bool {
	return d == Long || d == Short
}

// Sign returns the price-axis direction of the trade: +1 for LONG, -1 for SHORT.
// Callers must validate the direction first; an invalid value panics here
// rather than defaulting to either side.
func (d TradeDirection) Sign() float64 {
	switch d {
	case Long:
		return 1
	case Short:
		return -1
	}
	panic("domain: Sign called with invalid TradeDirection " + string(d))
}
