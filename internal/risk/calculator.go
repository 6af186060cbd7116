// Package risk converts a trading signal plus risk configuration and
// account state into a complete, internally consistent position plan.
//
// All arithmetic is plain float64. Tolerances: derived quantities are
// exact up to 1e-6 relative error; the post-computation self-check allows
// 1e-4 relative error before declaring the plan inconsistent.
package risk

import (
	"errors"
	"fmt"
	"math"

	"btcSignalBot/internal/domain"
)

// invariantTolerance is the relative error allowed by the self-check
// before a computed plan is rejected as internally inconsistent.
const invariantTolerance = 1e-4

var (
	// ErrInvalidParameter marks caller-supplied values outside the
	// calculator's domain. Recoverable by the caller; never retried here.
	ErrInvalidParameter = errors.New("invalid risk parameter")

	// ErrInvariantViolation marks a plan that failed the post-computation
	// self-check. This is a defect in the calculation, not a user error,
	// and the plan is withheld rather than emitted.
	ErrInvariantViolation = errors.New("position plan failed internal consistency check")
)

// InvalidParameterError identifies which input was out of domain and why.
type InvalidParameterError struct {
	Field  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error { return ErrInvalidParameter }

func invalidParam(field, reason string) error {
	return &InvalidParameterError{Field: field, Reason: reason}
}

// Config holds the risk parameters applied to every computed plan.
// It is an explicit per-call value, not process-wide state.
type Config struct {
	ATRMultiplier   float64   // Stop distance in ATR units, e.g. 1.8
	RiskPerTrade    float64   // Fraction of balance risked per trade, in (0, 1]
	RewardMultiples []float64 // Take-profit levels in R-multiples, e.g. [2, 3]
}

// Validate checks the configuration against the calculator's domain.
func (c Config) Validate() error {
	if c.ATRMultiplier <= 0 {
		return invalidParam("atr_multiplier", "must be positive")
	}
	if c.RiskPerTrade <= 0 || c.RiskPerTrade > 1 {
		return invalidParam("risk_per_trade", "must be in (0, 1]")
	}
	if len(c.RewardMultiples) == 0 {
		return invalidParam("reward_multiples", "must not be empty")
	}
	for i, m := range c.RewardMultiples {
		if m <= 0 {
			return invalidParam("reward_multiples", fmt.Sprintf("multiple %d (%v) must be positive", i, m))
		}
	}
	return nil
}

// ComputePlan derives a full position plan from a direction, a market
// snapshot, the risk configuration and the account state.
//
// The computation is pure and idempotent: no I/O, no retained state, safe
// to call from any number of concurrent callers. Either a complete plan
// satisfying all invariants is returned, or no plan at all.
//
// A zero ATR yields a plan flagged DegenerateRisk with PositionSize 0
// instead of an error; upstream decides whether to skip the signal.
func ComputePlan(direction domain.TradeDirection, market domain.MarketSnapshot, cfg Config, account domain.AccountState) (*domain.PositionPlan, error) {
	if !direction.IsValid() {
		return nil, invalidParam("direction", fmt.Sprintf("unknown trade direction %q", string(direction)))
	}
	if market.EntryPrice <= 0 {
		return nil, invalidParam("entry_price", "must be positive")
	}
	if market.ATRValue < 0 {
		return nil, invalidParam("atr_value", "must not be negative")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if account.Balance < 0 {
		return nil, invalidParam("balance", "must not be negative")
	}

	sign := direction.Sign()
	stopDistance := market.ATRValue * cfg.ATRMultiplier
	stopPrice := market.EntryPrice - sign*stopDistance
	riskAmount := account.Balance * cfg.RiskPerTrade

	plan := &domain.PositionPlan{
		Direction:        direction,
		EntryPrice:       market.EntryPrice,
		StopLossPrice:    stopPrice,
		StopLossDistance: stopDistance,
		RiskAmount:       riskAmount,
	}

	if stopDistance == 0 {
		// Zero ATR: no meaningful stop distance. Flag instead of dividing.
		plan.DegenerateRisk = true
	} else {
		plan.PositionSize = riskAmount / stopDistance
		plan.RealizedRiskMultiple = stopDistance / market.ATRValue
	}
	plan.PositionValue = plan.PositionSize * market.EntryPrice

	plan.Targets = make([]domain.PlanTarget, len(cfg.RewardMultiples))
	for i, m := range cfg.RewardMultiples {
		plan.Targets[i] = domain.PlanTarget{
			Price:        market.EntryPrice + sign*stopDistance*m,
			Multiple:     m,
			ProfitAmount: riskAmount * m,
		}
	}

	if err := checkInvariants(plan, cfg); err != nil {
		return nil, err
	}
	return plan, nil
}

// checkInvariants re-derives the plan's defining relations and rejects
// the plan if any of them drifted. The realized-multiple check exists
// because the defect this package guards against was exactly a displayed
// ATR multiplier that did not match the computed stop distance.
func checkInvariants(plan *domain.PositionPlan, cfg Config) error {
	if plan.DegenerateRisk {
		// Nothing further to check: size and realized multiple are zero
		// and the stop sits on the entry price.
		return nil
	}

	if !withinTolerance(plan.RealizedRiskMultiple, cfg.ATRMultiplier) {
		return fmt.Errorf("realized risk multiple %.6f does not match configured %.6f: %w",
			plan.RealizedRiskMultiple, cfg.ATRMultiplier, ErrInvariantViolation)
	}

	switch plan.Direction {
	case domain.Long:
		if plan.StopLossPrice >= plan.EntryPrice {
			return fmt.Errorf("LONG stop %.8f not below entry %.8f: %w",
				plan.StopLossPrice, plan.EntryPrice, ErrInvariantViolation)
		}
	case domain.Short:
		if plan.StopLossPrice <= plan.EntryPrice {
			return fmt.Errorf("SHORT stop %.8f not above entry %.8f: %w",
				plan.StopLossPrice, plan.EntryPrice, ErrInvariantViolation)
		}
	}

	if !withinTolerance(plan.PositionSize*plan.StopLossDistance, plan.RiskAmount) {
		return fmt.Errorf("realized risk %.8f does not match risk amount %.8f: %w",
			plan.PositionSize*plan.StopLossDistance, plan.RiskAmount, ErrInvariantViolation)
	}

	return nil
}

// withinTolerance reports whether a and b agree within the relative
// self-check tolerance. Exact equality covers the zero-zero case.
func withinTolerance(a, b float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= invariantTolerance*scale
}
