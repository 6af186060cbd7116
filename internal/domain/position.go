package domain

// OpenPosition is an existing position reported by the exchange. The bot
// never opens positions itself; it only monitors ones the account holder
// has open and recommends stop adjustments for them.
type OpenPosition struct {
	Symbol        string
	Direction     TradeDirection
	EntryPrice    float64
	Quantity      float64 // Absolute position size in base asset units
	MarkPrice     float64
	UnrealizedPnL float64
	Leverage      int
}
