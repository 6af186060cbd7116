package ports

import "context"

// Logger is the logging contract shared by the signal pipeline and its
// adapters: leveled messages with optional key-value fields, so an
// implementation can be swapped (stdlogger today, a structured backend
// later) without touching call sites.
type Logger interface {
	// Debug logs fine-grained pipeline events (kline ticks, evaluations).
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	// Info logs lifecycle and emitted-signal events.
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	// Warn logs recoverable conditions (suppressed signals, reconnects).
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	// Error logs failures together with their underlying error.
	Error(ctx context.Context, err error, msg string, fields ...map[string]interface{})
}
