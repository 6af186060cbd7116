package indicators

import (
	"math"
	"testing"
)

func TestMACDTrends(t *testing.T) {
	up := trendingKlines(60, 100, 1)
	res, err := MACD(up, 12, 26, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Line <= 0 {
		t.Errorf("expected positive MACD line in an uptrend, got %f", res.Line)
	}
	if res.Line <= res.Signal {
		t.Errorf("expected MACD line %f above signal %f in an uptrend", res.Line, res.Signal)
	}

	down := trendingKlines(60, 200, -1)
	res, err = MACD(down, 12, 26, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Line >= 0 {
		t.Errorf("expected negative MACD line in a downtrend, got %f", res.Line)
	}
	if res.Line >= res.Signal {
		t.Errorf("expected MACD line %f below signal %f in a downtrend", res.Line, res.Signal)
	}
}

func TestMACDFlatSeries(t *testing.T) {
	flat := trendingKlines(60, 100, 0)
	res, err := MACD(flat, 12, 26, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.Line) > 1e-9 || math.Abs(res.Histogram) > 1e-9 {
		t.Errorf("expected zero MACD on a flat series, got line %f histogram %f", res.Line, res.Histogram)
	}
}

func TestMACDValidation(t *testing.T) {
	klines := trendingKlines(60, 100, 1)
	if _, err := MACD(klines, 26, 12, 9); err == nil {
		t.Error("expected error when fast period is not below slow period")
	}
	if _, err := MACD(trendingKlines(20, 100, 1), 12, 26, 9); err == nil {
		t.Error("expected error for insufficient data")
	}
}
