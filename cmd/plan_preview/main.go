// Command plan_preview computes a position plan for manually supplied
// market values and prints it. Useful for sanity-checking risk settings
// without running the bot.
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"btcSignalBot/internal/domain"
	"btcSignalBot/internal/risk"
)

func main() {
	var (
		direction     = flag.String("direction", "LONG", "Trade direction: LONG or SHORT")
		entryPrice    = flag.Float64("entry", 0, "Entry price")
		atrValue      = flag.Float64("atr", 0, "Current ATR value")
		atrMultiplier = flag.Float64("atr-mult", 1.8, "Stop distance in ATR units")
		riskPerTrade  = flag.Float64("risk", 0.01, "Fraction of balance risked per trade")
		balance       = flag.Float64("balance", 0, "Account balance in quote currency")
		multiples     = flag.String("multiples", "2,3", "Comma-separated take-profit R-multiples")
	)
	flag.Parse()

	rewardMultiples, err := parseMultiples(*multiples)
	if err != nil {
		log.Fatalf("invalid -multiples: %v", err)
	}

	plan, err := risk.ComputePlan(
		domain.TradeDirection(strings.ToUpper(*direction)),
		domain.MarketSnapshot{EntryPrice: *entryPrice, ATRValue: *atrValue},
		risk.Config{
			ATRMultiplier:   *atrMultiplier,
			RiskPerTrade:    *riskPerTrade,
			RewardMultiples: rewardMultiples,
		},
		domain.AccountState{Balance: *balance},
	)
	if err != nil {
		log.Fatalf("plan computation failed: %v", err)
	}

	fmt.Printf("Direction:          %s\n", plan.Direction)
	fmt.Printf("Entry price:        %.4f\n", plan.EntryPrice)
	if plan.DegenerateRisk {
		fmt.Println("ATR is zero: no stop distance or position size can be derived.")
		return
	}
	fmt.Printf("Stop loss:          %.4f (distance %.4f, %.2f ATR)\n", plan.StopLossPrice, plan.StopLossDistance, plan.RealizedRiskMultiple)
	fmt.Printf("Position size:      %.6f (value %.2f)\n", plan.PositionSize, plan.PositionValue)
	fmt.Printf("Risk amount:        %.2f\n", plan.RiskAmount)
	for i, target := range plan.Targets {
		fmt.Printf("Target %d:           %.4f (%.1fR, profit %.2f)\n", i+1, target.Price, target.Multiple, target.ProfitAmount)
	}
}

func parseMultiples(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
