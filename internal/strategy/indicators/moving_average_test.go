package indicators

import (
	"math"
	"testing"

	"btcSignalBot/internal/domain"
)

func klinesFromCloses(closes ...float64) []*domain.Kline {
	klines := make([]*domain.Kline, len(closes))
	for i, c := range closes {
		klines[i] = &domain.Kline{Open: c, High: c, Low: c, Close: c}
	}
	return klines
}

func TestSMA(t *testing.T) {
	klines := klinesFromCloses(100, 102, 101, 103, 104)

	sma, err := SMA(klines, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (101.0 + 103.0 + 104.0) / 3.0
	if math.Abs(sma-want) > 1e-9 {
		t.Errorf("expected SMA %f, got %f", want, sma)
	}

	if _, err := SMA(klines, 6); err == nil {
		t.Error("expected error for insufficient data")
	}
}

func TestEMA(t *testing.T) {
	klines := klinesFromCloses(100, 102, 101, 103, 104)

	ema, err := EMA(klines, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Seed SMA(100,102,101) = 101; multiplier 0.5.
	// 103: (103-101)*0.5+101 = 102; 104: (104-102)*0.5+102 = 103.
	if math.Abs(ema-103) > 1e-9 {
		t.Errorf("expected EMA 103, got %f", ema)
	}

	if _, err := EMA(klines, 6); err == nil {
		t.Error("expected error for insufficient data")
	}
	if _, err := EMA(klines, 0); err == nil {
		t.Error("expected error for non-positive period")
	}
}
