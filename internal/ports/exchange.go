package ports

import (
	"context"
	"time"

	"btcSignalBot/internal/domain"
)

// MarketDataClient defines the read-only exchange surface the bot needs.
// The bot only observes: it fetches prices, candles, the account balance
// and any position the account holder already has open. It never places
// or cancels orders.
type MarketDataClient interface {
	// Ping checks connectivity to the exchange API.
	Ping(ctx context.Context) error

	// SetServerTime synchronizes the client's clock offset with the server.
	SetServerTime(ctx context.Context) error

	// GetServerTime retrieves the current server time from the exchange.
	GetServerTime(ctx context.Context) (time.Time, error)

	// GetTickerPrice retrieves the last traded price for a symbol.
	GetTickerPrice(ctx context.Context, symbol string) (float64, error)

	// GetKlines retrieves the most recent historical klines for a symbol.
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*domain.Kline, error)

	// GetAccountBalance retrieves the wallet balance for an asset (e.g. "USDT").
	GetAccountBalance(ctx context.Context, asset string) (float64, error)

	// GetOpenPosition retrieves the open position for a symbol, if any.
	// Returns nil, nil when the account holds no position in the symbol.
	GetOpenPosition(ctx context.Context, symbol string) (*domain.OpenPosition, error)

	// StreamKlines starts a WebSocket stream of kline events. The adapter
	// handles reconnection; doneCh closes when the stream gives up, stopCh
	// lets the caller shut the stream down.
	StreamKlines(ctx context.Context, symbol, interval string, handler func(kline *domain.Kline), errHandler func(err error)) (doneCh chan struct{}, stopCh chan struct{}, err error)
}
