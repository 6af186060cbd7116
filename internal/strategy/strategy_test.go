package strategy

import (
	"context"
	"testing"

	"btcSignalBot/internal/domain"
)

type testLogger struct{}

func (l *testLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (l *testLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (l *testLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (l *testLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func defaultTestConfig() Config {
	return Config{
		RSIPeriod:     14,
		RSIOverbought: 70,
		RSIOversold:   30,
		ShortMAPeriod: 20,
		LongMAPeriod:  50,
		MACDFast:      12,
		MACDSlow:      26,
		MACDSignal:    9,
		StrongScore:   60,
		WeakScore:     20,
	}
}

func trendingKlines(n int, start, step float64) []*domain.Kline {
	klines := make([]*domain.Kline, n)
	price := start
	for i := range klines {
		klines[i] = &domain.Kline{
			Symbol: "BTCUSDT",
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
		}
		price += step
	}
	return klines
}

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := New(defaultTestConfig(), &testLogger{})
	if err != nil {
		t.Fatalf("failed to create analyzer: %v", err)
	}
	return a
}

func TestEvaluateStrongBuyOnUptrend(t *testing.T) {
	a := newTestAnalyzer(t)
	klines := trendingKlines(60, 100, 1)
	price := klines[len(klines)-1].Close

	// A steady uptrend: price above both averages and a positive MACD
	// outweigh the overbought RSI.
	signal, err := a.Evaluate(context.Background(), klines, price)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal.Strength != domain.StrongBuy {
		t.Errorf("expected %s, got %s (score %d)", domain.StrongBuy, signal.Strength, signal.Score)
	}
	if !signal.Actionable() {
		t.Error("expected a strong signal to be actionable")
	}
	if dir, ok := signal.Strength.Direction(); !ok || dir != domain.Long {
		t.Errorf("expected direction %s, got %s", domain.Long, dir)
	}
	if signal.Symbol != "BTCUSDT" {
		t.Errorf("expected symbol from klines, got %q", signal.Symbol)
	}
	if signal.Reason == "" {
		t.Error("expected a populated reason string")
	}
}

func TestEvaluateStrongSellOnDowntrend(t *testing.T) {
	a := newTestAnalyzer(t)
	klines := trendingKlines(60, 200, -1)
	price := klines[len(klines)-1].Close

	signal, err := a.Evaluate(context.Background(), klines, price)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal.Strength != domain.StrongSell {
		t.Errorf("expected %s, got %s (score %d)", domain.StrongSell, signal.Strength, signal.Score)
	}
	if dir, ok := signal.Strength.Direction(); !ok || dir != domain.Short {
		t.Errorf("expected direction %s, got %s", domain.Short, dir)
	}
}

func TestEvaluateNeutralOnFlatMarket(t *testing.T) {
	a := newTestAnalyzer(t)
	klines := trendingKlines(60, 100, 0)

	signal, err := a.Evaluate(context.Background(), klines, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if signal.Strength != domain.Neutral {
		t.Errorf("expected %s, got %s (score %d)", domain.Neutral, signal.Strength, signal.Score)
	}
	if signal.Actionable() {
		t.Error("expected a neutral signal to not be actionable")
	}
	if _, ok := signal.Strength.Direction(); ok {
		t.Error("expected no direction for a neutral signal")
	}
}

func TestEvaluateInsufficientData(t *testing.T) {
	a := newTestAnalyzer(t)
	klines := trendingKlines(10, 100, 1)

	if _, err := a.Evaluate(context.Background(), klines, 110); err == nil {
		t.Error("expected error for insufficient kline data")
	}
}

func TestRequiredDataPoints(t *testing.T) {
	a := newTestAnalyzer(t)
	// Long MA 50 dominates RSI 15 and MACD 26+9-1 = 34.
	if got := a.RequiredDataPoints(); got != 50 {
		t.Errorf("expected 50 required data points, got %d", got)
	}
}

func TestNewValidation(t *testing.T) {
	base := defaultTestConfig()

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero RSI period", func(c *Config) { c.RSIPeriod = 0 }},
		{"short MA not below long MA", func(c *Config) { c.ShortMAPeriod = 50 }},
		{"MACD fast not below slow", func(c *Config) { c.MACDFast = 26 }},
		{"inverted RSI thresholds", func(c *Config) { c.RSIOverbought = 20 }},
		{"inverted score thresholds", func(c *Config) { c.StrongScore = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)
			if _, err := New(cfg, &testLogger{}); err == nil {
				t.Error("expected a config validation error")
			}
		})
	}

	if _, err := New(base, nil); err == nil {
		t.Error("expected an error for a nil logger")
	}
}
