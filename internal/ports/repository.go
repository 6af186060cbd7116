package ports

import (
	"context"

	"btcSignalBot/internal/domain"
)

// SignalRepository stores the history of emitted signals and the plans
// computed for them. The calculator itself has no persistence; this
// history exists for the daily signal cap and for post-hoc review.
type SignalRepository interface {
	// Create saves a signal record and returns its assigned ID.
	Create(ctx context.Context, rec *domain.SignalRecord) (int64, error)
	// FindRecentBySymbol retrieves the most recent records for a symbol, up to a limit.
	FindRecentBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.SignalRecord, error)
	// CountTodayBySymbol counts the records stored today for a symbol.
	CountTodayBySymbol(ctx context.Context, symbol string) (int, error)
}
