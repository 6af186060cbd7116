package ports

import (
	"context"

	"btcSignalBot/internal/domain"
)

// Notifier delivers human-readable messages about signals and plans.
// Every numeric field rendered by an implementation must come from the
// single PositionPlan instance it was handed.
type Notifier interface {
	// SendPlan renders and delivers a complete position plan for a signal.
	SendPlan(ctx context.Context, signal *domain.Signal, plan *domain.PositionPlan) error
	// SendAlert delivers a free-form warning or status message.
	SendAlert(ctx context.Context, title, body string) error
}
