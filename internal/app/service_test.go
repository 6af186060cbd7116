package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btcSignalBot/config"
	"btcSignalBot/internal/domain"
	"btcSignalBot/internal/risk"
)

// Mock implementations

type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockStrategy struct {
	signal *domain.Signal
	err    error
}

func (m *mockStrategy) RequiredDataPoints() int { return 10 }

func (m *mockStrategy) Evaluate(ctx context.Context, klines []*domain.Kline, currentPrice float64) (*domain.Signal, error) {
	return m.signal, m.err
}

type mockMarket struct {
	balance     float64
	balanceErr  error
	position    *domain.OpenPosition
	positionErr error
	klines      []*domain.Kline
	klinesErr   error
}

func (m *mockMarket) Ping(ctx context.Context) error                    { return nil }
func (m *mockMarket) SetServerTime(ctx context.Context) error           { return nil }
func (m *mockMarket) GetServerTime(ctx context.Context) (time.Time, error) {
	return time.Now(), nil
}
func (m *mockMarket) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	return 0, nil
}
func (m *mockMarket) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error) {
	return m.klines, m.klinesErr
}
func (m *mockMarket) GetAccountBalance(ctx context.Context, asset string) (float64, error) {
	return m.balance, m.balanceErr
}
func (m *mockMarket) GetOpenPosition(ctx context.Context, symbol string) (*domain.OpenPosition, error) {
	return m.position, m.positionErr
}
func (m *mockMarket) StreamKlines(ctx context.Context, symbol, interval string, handler func(kline *domain.Kline), errHandler func(err error)) (chan struct{}, chan struct{}, error) {
	return make(chan struct{}), make(chan struct{}), nil
}

type mockRepo struct {
	records    []*domain.SignalRecord
	createErr  error
	todayCount int
}

func (m *mockRepo) Create(ctx context.Context, rec *domain.SignalRecord) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	m.records = append(m.records, rec)
	rec.ID = int64(len(m.records))
	return rec.ID, nil
}

func (m *mockRepo) FindRecentBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.SignalRecord, error) {
	return m.records, nil
}

func (m *mockRepo) CountTodayBySymbol(ctx context.Context, symbol string) (int, error) {
	return m.todayCount, nil
}

type mockNotifier struct {
	plans    []*domain.PositionPlan
	alerts   []string
	planErr  error
	alertErr error
}

func (m *mockNotifier) SendPlan(ctx context.Context, signal *domain.Signal, plan *domain.PositionPlan) error {
	if m.planErr != nil {
		return m.planErr
	}
	m.plans = append(m.plans, plan)
	return nil
}

func (m *mockNotifier) SendAlert(ctx context.Context, title, body string) error {
	if m.alertErr != nil {
		return m.alertErr
	}
	m.alerts = append(m.alerts, title+": "+body)
	return nil
}

// Test helpers

func testConfig() *config.Config {
	return &config.Config{
		Symbol:           "BTCUSDT",
		KlineInterval:    "15m",
		QuoteAsset:       "USDT",
		ATRPeriod:        2,
		ATRMultiplier:    2.0,
		RiskPerTrade:     0.01,
		RewardMultiples:  []float64{2.0, 3.0},
		MaxSignalsPerDay: 5,
		SignalCooldown:   time.Hour,
	}
}

// rangedKlines produces klines with a constant bar range of 2, so the
// ATR over them is exactly 2.
func rangedKlines(n int, close float64) []*domain.Kline {
	klines := make([]*domain.Kline, n)
	for i := range klines {
		klines[i] = &domain.Kline{
			Symbol: "BTCUSDT",
			Open:   close,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
		}
	}
	return klines
}

// flatKlines produces klines with zero range and no gaps, so the ATR
// over them is exactly zero.
func flatKlines(n int, close float64) []*domain.Kline {
	klines := make([]*domain.Kline, n)
	for i := range klines {
		klines[i] = &domain.Kline{Symbol: "BTCUSDT", Open: close, High: close, Low: close, Close: close}
	}
	return klines
}

func strongBuySignal(price float64) *domain.Signal {
	return &domain.Signal{
		Symbol:   "BTCUSDT",
		Strength: domain.StrongBuy,
		Score:    65,
		Price:    price,
		Reason:   "test",
		Time:     time.Now().UTC(),
	}
}

type serviceFixture struct {
	svc      *SignalService
	market   *mockMarket
	repo     *mockRepo
	notifier *mockNotifier
	strategy *mockStrategy
	logger   *mockLogger
}

func newFixture(t *testing.T, cfg *config.Config, strat *mockStrategy) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		market:   &mockMarket{balance: 10000.0},
		repo:     &mockRepo{},
		notifier: &mockNotifier{},
		strategy: strat,
		logger:   &mockLogger{},
	}
	svc, err := NewSignalService(cfg, f.logger, f.market, f.repo, f.notifier, f.strategy)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func finalKline(close float64) *domain.Kline {
	return &domain.Kline{
		Symbol:  "BTCUSDT",
		Open:    close,
		High:    close + 1,
		Low:     close - 1,
		Close:   close,
		IsFinal: true,
	}
}

// Tests

func TestNewSignalServiceValidation(t *testing.T) {
	cfg := testConfig()
	logger := &mockLogger{}
	market := &mockMarket{}
	repo := &mockRepo{}
	notifier := &mockNotifier{}
	strat := &mockStrategy{}

	_, err := NewSignalService(nil, logger, market, repo, notifier, strat)
	assert.Error(t, err, "nil config must be rejected")

	_, err = NewSignalService(cfg, logger, market, repo, nil, strat)
	assert.Error(t, err, "nil notifier must be rejected")

	bad := testConfig()
	bad.RiskPerTrade = 1.5
	_, err = NewSignalService(bad, logger, market, repo, notifier, strat)
	assert.Error(t, err, "out-of-range risk fraction must be rejected")
}

func TestHandleKlineEventEmitsPlan(t *testing.T) {
	cfg := testConfig()
	f := newFixture(t, cfg, &mockStrategy{signal: strongBuySignal(100000.0)})
	f.svc.klineCache = rangedKlines(20, 100000.0)

	f.svc.handleKlineEvent(finalKline(100000.0))

	require.Len(t, f.repo.records, 1, "an actionable signal must be persisted")
	rec := f.repo.records[0]
	require.NotNil(t, rec.Plan)
	assert.Equal(t, domain.Long, rec.Plan.Direction)
	// ATR 2, multiplier 2 -> distance 4; balance 10000, risk 1% -> 100 risked.
	assert.InDelta(t, 4.0, rec.Plan.StopLossDistance, 1e-9)
	assert.InDelta(t, 99996.0, rec.Plan.StopLossPrice, 1e-9)
	assert.InDelta(t, 25.0, rec.Plan.PositionSize, 1e-9)

	require.Len(t, f.notifier.plans, 1, "the plan must be delivered")
	assert.Same(t, rec.Plan, f.notifier.plans[0], "the delivered plan must be the persisted one")
	assert.Equal(t, 1, f.svc.signalsToday)
}

func TestHandleKlineEventIgnoresNonFinal(t *testing.T) {
	f := newFixture(t, testConfig(), &mockStrategy{signal: strongBuySignal(100000.0)})
	f.svc.klineCache = rangedKlines(20, 100000.0)

	partial := finalKline(100000.0)
	partial.IsFinal = false
	f.svc.handleKlineEvent(partial)

	assert.Empty(t, f.repo.records)
	assert.Empty(t, f.notifier.plans)
	assert.Len(t, f.svc.klineCache, 20, "partial klines must not enter the cache")
}

func TestHandleKlineEventNonActionable(t *testing.T) {
	weak := strongBuySignal(100000.0)
	weak.Strength = domain.WeakBuy
	weak.Score = 30
	f := newFixture(t, testConfig(), &mockStrategy{signal: weak})
	f.svc.klineCache = rangedKlines(20, 100000.0)

	f.svc.handleKlineEvent(finalKline(100000.0))

	assert.Empty(t, f.repo.records, "weak signals are logged, not emitted")
	assert.Empty(t, f.notifier.plans)
}

func TestHandleKlineEventDailyCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSignalsPerDay = 2
	f := newFixture(t, cfg, &mockStrategy{signal: strongBuySignal(100000.0)})
	f.svc.klineCache = rangedKlines(20, 100000.0)
	f.svc.signalsToday = 2

	f.svc.handleKlineEvent(finalKline(100000.0))

	assert.Empty(t, f.repo.records, "signals beyond the daily cap must be suppressed")
	assert.Empty(t, f.notifier.plans)
}

func TestHandleKlineEventCooldown(t *testing.T) {
	f := newFixture(t, testConfig(), &mockStrategy{signal: strongBuySignal(100000.0)})
	f.svc.klineCache = rangedKlines(20, 100000.0)
	f.svc.lastSignalAt[domain.Long] = time.Now().Add(-time.Minute)

	f.svc.handleKlineEvent(finalKline(100000.0))
	assert.Empty(t, f.notifier.plans, "signals inside the cooldown window must be suppressed")

	// A SHORT signal is a different direction and passes.
	short := strongBuySignal(100000.0)
	short.Strength = domain.StrongSell
	f.strategy.signal = short
	f.svc.handleKlineEvent(finalKline(100000.0))
	assert.Len(t, f.notifier.plans, 1)
	assert.Equal(t, domain.Short, f.notifier.plans[0].Direction)
}

func TestHandleKlineEventZeroATR(t *testing.T) {
	f := newFixture(t, testConfig(), &mockStrategy{signal: strongBuySignal(100000.0)})
	f.svc.klineCache = flatKlines(20, 100000.0)

	flat := finalKline(100000.0)
	flat.High = 100000.0
	flat.Low = 100000.0
	f.svc.handleKlineEvent(flat)

	require.Len(t, f.repo.records, 1, "degenerate signals are still recorded")
	require.NotNil(t, f.repo.records[0].Plan)
	assert.True(t, f.repo.records[0].Plan.DegenerateRisk)
	assert.Zero(t, f.repo.records[0].Plan.PositionSize)

	assert.Empty(t, f.notifier.plans, "no plan notification for a degenerate plan")
	require.Len(t, f.notifier.alerts, 1)
	assert.Contains(t, f.notifier.alerts[0], "Skip this one")
}

func TestHandleKlineEventInvariantViolation(t *testing.T) {
	f := newFixture(t, testConfig(), &mockStrategy{signal: strongBuySignal(100000.0)})
	f.svc.klineCache = rangedKlines(20, 100000.0)
	f.svc.computePlan = func(domain.TradeDirection, domain.MarketSnapshot, risk.Config, domain.AccountState) (*domain.PositionPlan, error) {
		return nil, fmt.Errorf("realized risk multiple 1.000000 does not match configured 2.000000: %w", risk.ErrInvariantViolation)
	}

	f.svc.handleKlineEvent(finalKline(100000.0))

	// An inconsistent plan is alerted and withheld, never rendered,
	// persisted or counted.
	assert.Empty(t, f.notifier.plans, "an inconsistent plan must never be delivered")
	assert.Empty(t, f.repo.records, "an inconsistent plan must never be persisted")
	assert.Equal(t, 0, f.svc.signalsToday)
	require.Len(t, f.notifier.alerts, 1)
	assert.Contains(t, f.notifier.alerts[0], "defect")
}

func TestHandleKlineEventBalanceError(t *testing.T) {
	f := newFixture(t, testConfig(), &mockStrategy{signal: strongBuySignal(100000.0)})
	f.svc.klineCache = rangedKlines(20, 100000.0)
	f.market.balanceErr = errors.New("exchange down")

	f.svc.handleKlineEvent(finalKline(100000.0))

	assert.Empty(t, f.repo.records, "no record without a plan computation")
	assert.Empty(t, f.notifier.plans)
	assert.Equal(t, 0, f.svc.signalsToday)
}

func TestHandleKlineEventTrailingStopAdvice(t *testing.T) {
	neutral := strongBuySignal(120.0)
	neutral.Strength = domain.Neutral
	neutral.Score = 0
	f := newFixture(t, testConfig(), &mockStrategy{signal: neutral})
	f.svc.klineCache = rangedKlines(20, 120.0)
	f.market.position = &domain.OpenPosition{
		Symbol:     "BTCUSDT",
		Direction:  domain.Long,
		EntryPrice: 100.0,
		Quantity:   0.5,
	}

	f.svc.handleKlineEvent(finalKline(120.0))

	// ATR 2, multiplier 2 -> distance 4; price 120 trails the stop to 116.
	require.Len(t, f.notifier.alerts, 1)
	assert.Contains(t, f.notifier.alerts[0], "116.0000")

	// The same advice is not repeated on the next candle.
	f.svc.handleKlineEvent(finalKline(120.0))
	assert.Len(t, f.notifier.alerts, 1)
}
