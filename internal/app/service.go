// Package app wires the market data stream, the signal strategy, the
// risk calculator and the outbound notifier into the running bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"btcSignalBot/config"
	"btcSignalBot/internal/domain"
	"btcSignalBot/internal/ports"
	"btcSignalBot/internal/risk"
	"btcSignalBot/internal/strategy/indicators"
)

const (
	maxKlineCacheSize = 500 // Limit cache size to avoid memory issues
)

// SignalService orchestrates the bot: it watches the kline stream,
// evaluates the strategy on every closed candle, turns actionable
// signals into position plans and delivers them. It never trades.
type SignalService struct {
	cfg        *config.Config
	riskCfg    risk.Config
	logger     ports.Logger
	market     ports.MarketDataClient
	repo       ports.SignalRepository
	notifier   ports.Notifier
	strategy   ports.SignalStrategy
	klineCache []*domain.Kline

	// computePlan is risk.ComputePlan; a field so tests can force the
	// failure modes the triage below handles.
	computePlan func(domain.TradeDirection, domain.MarketSnapshot, risk.Config, domain.AccountState) (*domain.PositionPlan, error)

	// State fields
	mu             sync.Mutex // Protects access to state fields below
	signalsToday   int
	lastSignalAt   map[domain.TradeDirection]time.Time
	lastStopAdvice float64 // Last trailing stop price sent, to avoid repeats
}

// NewSignalService creates a new application service instance.
func NewSignalService(
	cfg *config.Config,
	logger ports.Logger,
	market ports.MarketDataClient,
	repo ports.SignalRepository,
	notifier ports.Notifier,
	strat ports.SignalStrategy,
) (*SignalService, error) {
	if cfg == nil || logger == nil || market == nil || repo == nil || notifier == nil || strat == nil {
		return nil, fmt.Errorf("missing required dependencies for SignalService")
	}

	if cfg.ATRPeriod <= 0 {
		return nil, fmt.Errorf("configuration ATRPeriod must be positive")
	}
	if cfg.MaxSignalsPerDay <= 0 {
		return nil, fmt.Errorf("configuration MaxSignalsPerDay must be positive")
	}

	riskCfg := risk.Config{
		ATRMultiplier:   cfg.ATRMultiplier,
		RiskPerTrade:    cfg.RiskPerTrade,
		RewardMultiples: cfg.RewardMultiples,
	}
	if err := riskCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid risk configuration: %w", err)
	}

	return &SignalService{
		cfg:          cfg,
		riskCfg:      riskCfg,
		logger:       logger,
		market:       market,
		repo:         repo,
		notifier:     notifier,
		strategy:     strat,
		klineCache:   make([]*domain.Kline, 0, maxKlineCacheSize),
		lastSignalAt: make(map[domain.TradeDirection]time.Time),
		computePlan:  risk.ComputePlan,
	}, nil
}

// Start begins the signal service's main loop. It blocks until the
// context is cancelled, a shutdown signal arrives or the stream dies.
func (s *SignalService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting Signal Service...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	// --- Initialization Steps ---
	// 1. Set server time (important for signed API calls)
	if err := s.market.SetServerTime(ctx); err != nil {
		s.logger.Error(ctx, err, "Failed to synchronize server time")
		return fmt.Errorf("failed to set server time: %w", err)
	}
	s.logger.Info(ctx, "Server time synchronized")

	// 2. Restore today's signal count so a restart does not reset the cap
	count, err := s.repo.CountTodayBySymbol(ctx, s.cfg.Symbol)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to count today's signals")
		return fmt.Errorf("failed to count today's signals: %w", err)
	}
	s.signalsToday = count
	s.logger.Info(ctx, "Initial state synchronized", map[string]interface{}{"signalsToday": s.signalsToday})

	// 3. Log any position the account holder already has open
	if pos, err := s.market.GetOpenPosition(ctx, s.cfg.Symbol); err != nil {
		s.logger.Warn(ctx, "Failed to check for an existing open position", map[string]interface{}{"error": err.Error()})
	} else if pos != nil {
		s.logger.Info(ctx, "Found existing open position, stop advice will be monitored", map[string]interface{}{
			"symbol":     pos.Symbol,
			"direction":  string(pos.Direction),
			"entryPrice": pos.EntryPrice,
			"quantity":   pos.Quantity,
		})
	}

	// 4. Load initial klines for the strategy and the ATR
	requiredPoints := s.requiredKlines()
	s.logger.Info(ctx, "Loading initial klines", map[string]interface{}{"requiredPoints": requiredPoints})
	initialKlines, err := s.market.GetKlines(ctx, s.cfg.Symbol, s.cfg.KlineInterval, requiredPoints)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load initial klines")
		return fmt.Errorf("failed to load initial klines: %w", err)
	}
	if len(initialKlines) < requiredPoints {
		err := fmt.Errorf("not enough initial klines loaded (%d) to meet requirement (%d)", len(initialKlines), requiredPoints)
		s.logger.Error(ctx, err, "Insufficient historical data")
		return err
	}
	s.klineCache = initialKlines
	s.logger.Info(ctx, "Loaded initial klines", map[string]interface{}{"count": len(s.klineCache)})

	// --- Start WebSocket Stream ---
	wsDoneCh, wsStopCh, err := s.market.StreamKlines(ctx, s.cfg.Symbol, s.cfg.KlineInterval, s.handleKlineEvent, s.handleWsError)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to start WebSocket stream")
		return fmt.Errorf("failed to start WebSocket stream: %w", err)
	}
	s.logger.Info(ctx, "WebSocket stream started", map[string]interface{}{"symbol": s.cfg.Symbol, "interval": s.cfg.KlineInterval})

	// --- Main Loop ---
	// The work happens in handleKlineEvent; here we only wait for
	// cancellation or an unexpected stream death.
	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "Main context cancelled, initiating shutdown...")
		select {
		case wsStopCh <- struct{}{}:
			s.logger.Info(ctx, "Stop signal sent to WebSocket stream")
		default:
			s.logger.Warn(ctx, "Failed to send stop signal to WebSocket (already closed?)")
		}
		select {
		case <-wsDoneCh:
			s.logger.Info(ctx, "WebSocket stream shut down gracefully")
		case <-time.After(5 * time.Second):
			s.logger.Warn(ctx, "Timeout waiting for WebSocket stream to shut down")
		}
	case <-wsDoneCh:
		s.logger.Error(ctx, fmt.Errorf("websocket stream closed unexpectedly"), "WebSocket stream stopped")
		return fmt.Errorf("websocket stream stopped unexpectedly")
	}

	s.logger.Info(ctx, "Signal Service stopped.")
	return nil
}

// requiredKlines returns the cache size needed by both the strategy and
// the ATR calculation.
func (s *SignalService) requiredKlines() int {
	required := s.strategy.RequiredDataPoints()
	if n := s.cfg.ATRPeriod + 1; n > required {
		required = n
	}
	return required
}

// handleKlineEvent processes incoming kline data from the WebSocket.
// This is the core logic loop triggered by new price data.
func (s *SignalService) handleKlineEvent(kline *domain.Kline) {
	ctx := context.Background()
	currentPrice := kline.Close

	s.logger.Debug(ctx, "Received kline event", map[string]interface{}{
		"symbol":    kline.Symbol,
		"interval":  kline.Interval,
		"closeTime": kline.CloseTime,
		"close":     currentPrice,
		"isFinal":   kline.IsFinal,
	})

	// Only process final klines to avoid acting on incomplete data
	if !kline.IsFinal {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.klineCache = append(s.klineCache, kline)
	if len(s.klineCache) > maxKlineCacheSize {
		s.klineCache = s.klineCache[len(s.klineCache)-maxKlineCacheSize:]
	}

	atrValue, err := indicators.ATR(s.klineCache, s.cfg.ATRPeriod)
	if err != nil {
		s.logger.Error(ctx, err, "ATR calculation failed, skipping kline")
		return
	}

	s.adviseOpenPosition(ctx, currentPrice, atrValue)

	signal, err := s.strategy.Evaluate(ctx, s.klineCache, currentPrice)
	if err != nil {
		s.logger.Error(ctx, err, "Strategy evaluation failed")
		return
	}

	if !signal.Actionable() {
		s.logger.Debug(ctx, "Signal not actionable", map[string]interface{}{
			"strength": string(signal.Strength),
			"score":    signal.Score,
		})
		return
	}

	if ok, reason := s.canEmit(signal); !ok {
		s.logger.Info(ctx, "Actionable signal suppressed", map[string]interface{}{
			"strength": string(signal.Strength),
			"score":    signal.Score,
			"reason":   reason,
		})
		return
	}

	s.emitSignal(ctx, signal, atrValue)
}

// adviseOpenPosition recommends a trailing stop adjustment for any
// position the account holder has open. Errors are logged, not fatal;
// the signal flow continues regardless.
func (s *SignalService) adviseOpenPosition(ctx context.Context, currentPrice, atrValue float64) {
	pos, err := s.market.GetOpenPosition(ctx, s.cfg.Symbol)
	if err != nil {
		s.logger.Warn(ctx, "Failed to fetch open position for stop advice", map[string]interface{}{"error": err.Error()})
		return
	}
	if pos == nil {
		s.lastStopAdvice = 0
		return
	}

	advice := risk.ComputeTrailingStop(pos, currentPrice, atrValue, s.cfg.ATRMultiplier)
	if advice == nil {
		return
	}
	// Only notify when the recommendation moved meaningfully.
	if s.lastStopAdvice != 0 && math.Abs(advice.StopPrice-s.lastStopAdvice) < atrValue*0.1 {
		return
	}

	body := fmt.Sprintf("%s %s position from %.4f: price is at %.4f, move the stop to **%.4f** to lock in profit.",
		pos.Symbol, pos.Direction, pos.EntryPrice, currentPrice, advice.StopPrice)
	if err := s.notifier.SendAlert(ctx, fmt.Sprintf("%s trailing stop", pos.Symbol), body); err != nil {
		s.logger.Error(ctx, err, "Failed to deliver trailing stop advice")
		return
	}
	s.lastStopAdvice = advice.StopPrice
	s.logger.Info(ctx, "Trailing stop advice sent", map[string]interface{}{
		"symbol":    pos.Symbol,
		"direction": string(pos.Direction),
		"stopPrice": advice.StopPrice,
	})
}

// canEmit checks the daily cap and the per-direction cooldown.
// NOTE: assumes the mutex `s.mu` is already locked by the caller.
func (s *SignalService) canEmit(signal *domain.Signal) (bool, string) {
	if s.signalsToday >= s.cfg.MaxSignalsPerDay {
		return false, fmt.Sprintf("daily signal limit reached (%d/%d)", s.signalsToday, s.cfg.MaxSignalsPerDay)
	}

	direction, _ := signal.Strength.Direction()
	if last, ok := s.lastSignalAt[direction]; ok {
		if since := time.Since(last); since < s.cfg.SignalCooldown {
			return false, fmt.Sprintf("cooldown active for %s (%.0fs remaining)", direction, (s.cfg.SignalCooldown - since).Seconds())
		}
	}
	return true, ""
}

// emitSignal computes the position plan for an actionable signal,
// persists it and delivers the notification.
// NOTE: assumes the mutex `s.mu` is already locked by the caller.
func (s *SignalService) emitSignal(ctx context.Context, signal *domain.Signal, atrValue float64) {
	op := "emitSignal"
	direction, _ := signal.Strength.Direction()

	balance, err := s.market.GetAccountBalance(ctx, s.cfg.QuoteAsset)
	if err != nil {
		s.logger.Error(ctx, err, op+": Failed to fetch account balance, signal dropped")
		return
	}

	plan, err := s.computePlan(direction,
		domain.MarketSnapshot{EntryPrice: signal.Price, ATRValue: atrValue},
		s.riskCfg,
		domain.AccountState{Balance: balance})
	if err != nil {
		switch {
		case errors.Is(err, risk.ErrInvariantViolation):
			// A defect, not market conditions. Raise an alert so it is
			// noticed, and never deliver the inconsistent plan.
			s.logger.Error(ctx, err, op+": Plan failed consistency check, withholding signal")
			if alertErr := s.notifier.SendAlert(ctx, "Plan calculation defect", err.Error()); alertErr != nil {
				s.logger.Error(ctx, alertErr, op+": Failed to deliver defect alert")
			}
		case errors.Is(err, risk.ErrInvalidParameter):
			s.logger.Error(ctx, err, op+": Invalid plan input, signal dropped", map[string]interface{}{
				"entryPrice": signal.Price,
				"atrValue":   atrValue,
				"balance":    balance,
			})
		default:
			s.logger.Error(ctx, err, op+": Plan computation failed, signal dropped")
		}
		return
	}

	rec := &domain.SignalRecord{Signal: *signal, Plan: plan}
	if _, err := s.repo.Create(ctx, rec); err != nil {
		// Persistence failure must not suppress the notification; the
		// daily cap just loses one data point until restart.
		s.logger.Error(ctx, err, op+": Failed to persist signal record")
	}

	if plan.DegenerateRisk {
		s.logger.Warn(ctx, op+": Degenerate plan (zero ATR), sending warning instead of plan")
		body := fmt.Sprintf("%s %s at %.4f, but ATR is zero so no position size can be derived. Skip this one.",
			signal.Symbol, signal.Strength, signal.Price)
		if err := s.notifier.SendAlert(ctx, fmt.Sprintf("%s signal skipped", signal.Symbol), body); err != nil {
			s.logger.Error(ctx, err, op+": Failed to deliver degenerate plan warning")
		}
	} else {
		if err := s.notifier.SendPlan(ctx, signal, plan); err != nil {
			s.logger.Error(ctx, err, op+": Failed to deliver plan notification")
			// The record is already stored; count it anyway so a flapping
			// webhook cannot cause a signal storm.
		}
	}

	s.signalsToday++
	s.lastSignalAt[direction] = time.Now()
	s.logger.Info(ctx, op+": Signal emitted", map[string]interface{}{
		"symbol":       signal.Symbol,
		"strength":     string(signal.Strength),
		"score":        signal.Score,
		"entryPrice":   plan.EntryPrice,
		"stopLoss":     plan.StopLossPrice,
		"positionSize": plan.PositionSize,
		"signalsToday": s.signalsToday,
	})
}

// handleWsError handles errors reported by the WebSocket stream.
// Reconnection is the adapter's job; this is only for visibility.
func (s *SignalService) handleWsError(err error) {
	s.logger.Error(context.Background(), err, "WebSocket stream error reported")
}
