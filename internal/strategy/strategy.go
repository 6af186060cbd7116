// Package strategy grades market data into trading signals by combining
// weighted votes from several technical indicators.
package strategy

import (
	"context"
	"fmt"
	"math"
	"strings"

	"btcSignalBot/internal/domain"
	"btcSignalBot/internal/ports"
	"btcSignalBot/internal/strategy/indicators"
)

// Indicator weights for the combined score. MACD and the moving-average
// trend carry more weight than the RSI, which only acts as an
// overbought/oversold filter.
const (
	weightRSI  = 20
	weightSMA  = 30
	weightMACD = 25
)

// Per-indicator votes before weighting.
const (
	voteStrongBuy  = 100
	voteWeakBuy    = 50
	voteNeutral    = 0
	voteWeakSell   = -50
	voteStrongSell = -100
)

// Config holds parameters for the signal analyzer.
type Config struct {
	RSIPeriod     int     // e.g. 14
	RSIOverbought float64 // e.g. 70
	RSIOversold   float64 // e.g. 30
	ShortMAPeriod int     // e.g. 20
	LongMAPeriod  int     // e.g. 50
	MACDFast      int     // e.g. 12
	MACDSlow      int     // e.g. 26
	MACDSignal    int     // e.g. 9
	StrongScore   int     // combined score at or beyond which a signal is actionable, e.g. 60
	WeakScore     int     // combined score for a weak (informational) signal, e.g. 20
}

// Analyzer scores klines into a Signal. It implements ports.SignalStrategy.
type Analyzer struct {
	cfg    Config
	logger ports.Logger
}

// New creates a new Analyzer instance.
func New(cfg Config, logger ports.Logger) (*Analyzer, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for the analyzer")
	}
	if cfg.RSIPeriod <= 0 || cfg.ShortMAPeriod <= 0 || cfg.LongMAPeriod <= 0 ||
		cfg.MACDFast <= 0 || cfg.MACDSlow <= 0 || cfg.MACDSignal <= 0 {
		return nil, fmt.Errorf("analyzer periods must be positive")
	}
	if cfg.ShortMAPeriod >= cfg.LongMAPeriod {
		return nil, fmt.Errorf("short MA period must be less than long MA period")
	}
	if cfg.MACDFast >= cfg.MACDSlow {
		return nil, fmt.Errorf("MACD fast period must be less than slow period")
	}
	if cfg.RSIOverbought <= cfg.RSIOversold || cfg.RSIOverbought > 100 || cfg.RSIOversold < 0 {
		return nil, fmt.Errorf("invalid RSI thresholds (overbought must be > oversold, within 0-100)")
	}
	if cfg.StrongScore <= cfg.WeakScore || cfg.StrongScore > 100 || cfg.WeakScore <= 0 {
		return nil, fmt.Errorf("invalid score thresholds (0 < weak < strong <= 100)")
	}
	return &Analyzer{cfg: cfg, logger: logger}, nil
}

// RequiredDataPoints returns the minimum number of klines needed for all
// indicator calculations.
func (a *Analyzer) RequiredDataPoints() int {
	required := a.cfg.LongMAPeriod
	if n := a.cfg.RSIPeriod + 1; n > required {
		required = n
	}
	if n := a.cfg.MACDSlow + a.cfg.MACDSignal - 1; n > required {
		required = n
	}
	return required
}

// Evaluate scores the current market state and always returns a signal;
// only strong scores are actionable.
func (a *Analyzer) Evaluate(ctx context.Context, klines []*domain.Kline, currentPrice float64) (*domain.Signal, error) {
	required := a.RequiredDataPoints()
	if len(klines) < required {
		return nil, fmt.Errorf("not enough kline data for evaluation: need %d, got %d", required, len(klines))
	}

	rsi, err := indicators.RSI(klines, a.cfg.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("RSI calculation failed: %w", err)
	}
	shortMA, err := indicators.SMA(klines, a.cfg.ShortMAPeriod)
	if err != nil {
		return nil, fmt.Errorf("short MA calculation failed: %w", err)
	}
	longMA, err := indicators.SMA(klines, a.cfg.LongMAPeriod)
	if err != nil {
		return nil, fmt.Errorf("long MA calculation failed: %w", err)
	}
	macd, err := indicators.MACD(klines, a.cfg.MACDFast, a.cfg.MACDSlow, a.cfg.MACDSignal)
	if err != nil {
		return nil, fmt.Errorf("MACD calculation failed: %w", err)
	}

	rsiVote := a.rsiVote(rsi)
	smaVote := smaVote(currentPrice, shortMA, longMA)
	macdVote := macdVote(macd)

	score := combineVotes(rsiVote, smaVote, macdVote)
	strength := a.gradeScore(score)

	last := klines[len(klines)-1]
	signal := &domain.Signal{
		Symbol:   last.Symbol,
		Strength: strength,
		Score:    score,
		Price:    currentPrice,
		Reason:   describeVotes(rsi, rsiVote, shortMA, longMA, smaVote, macd, macdVote),
		Time:     last.CloseTime,
	}

	a.logger.Debug(ctx, "Evaluation complete", map[string]interface{}{
		"symbol":   signal.Symbol,
		"score":    score,
		"strength": string(strength),
		"rsi":      rsi,
		"shortMA":  shortMA,
		"longMA":   longMA,
		"macd":     macd.Line,
	})
	return signal, nil
}

// rsiVote treats the RSI as a contrarian filter: oversold leans buy,
// overbought leans sell.
func (a *Analyzer) rsiVote(rsi float64) int {
	switch {
	case rsi <= a.cfg.RSIOversold:
		return voteWeakBuy
	case rsi >= a.cfg.RSIOverbought:
		return voteWeakSell
	}
	return voteNeutral
}

// smaVote reads the price position against the short and long averages.
func smaVote(price, shortMA, longMA float64) int {
	switch {
	case price > shortMA && shortMA > longMA:
		return voteStrongBuy
	case price > shortMA:
		return voteWeakBuy
	case price < shortMA && shortMA < longMA:
		return voteStrongSell
	case price < shortMA:
		return voteWeakSell
	}
	return voteNeutral
}

// macdVote reads the MACD line against its signal line; a confirming
// histogram upgrades the vote.
func macdVote(macd indicators.MACDResult) int {
	switch {
	case macd.Line > macd.Signal && macd.Histogram > 0:
		return voteStrongBuy
	case macd.Line > macd.Signal:
		return voteWeakBuy
	case macd.Line < macd.Signal && macd.Histogram < 0:
		return voteStrongSell
	case macd.Line < macd.Signal:
		return voteWeakSell
	}
	return voteNeutral
}

// combineVotes produces the weighted average vote, normalized to [-100, 100].
func combineVotes(rsiVote, smaVote, macdVote int) int {
	weighted := rsiVote*weightRSI + smaVote*weightSMA + macdVote*weightMACD
	total := weightRSI + weightSMA + weightMACD
	return int(math.Round(float64(weighted) / float64(total)))
}

func (a *Analyzer) gradeScore(score int) domain.SignalStrength {
	switch {
	case score >= a.cfg.StrongScore:
		return domain.StrongBuy
	case score >= a.cfg.WeakScore:
		return domain.WeakBuy
	case score <= -a.cfg.StrongScore:
		return domain.StrongSell
	case score <= -a.cfg.WeakScore:
		return domain.WeakSell
	}
	return domain.Neutral
}

func describeVotes(rsi float64, rsiVote int, shortMA, longMA float64, smaVote int, macd indicators.MACDResult, macdVote int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "RSI %.1f (vote %+d)", rsi, rsiVote)
	fmt.Fprintf(&sb, "; MA %.2f/%.2f (vote %+d)", shortMA, longMA, smaVote)
	fmt.Fprintf(&sb, "; MACD %.4f vs %.4f (vote %+d)", macd.Line, macd.Signal, macdVote)
	return sb.String()
}
