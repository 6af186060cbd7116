package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"btcSignalBot/internal/adapters/logger"
)

// Config holds all application configuration.
type Config struct {
	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Market
	Symbol        string
	KlineInterval string // e.g. "15m"
	QuoteAsset    string // Asset the balance and risk amounts are denominated in

	// Risk Parameters
	ATRPeriod       int
	ATRMultiplier   float64   // Stop distance in ATR units, e.g. 1.8
	RiskPerTrade    float64   // Fraction of balance risked per signal, e.g. 0.01
	RewardMultiples []float64 // Take-profit levels in R-multiples, e.g. [2, 3]

	// Strategy Parameters
	StrategyRSIPeriod     int
	StrategyRSIOverbought float64
	StrategyRSIOversold   float64
	StrategyShortMAPeriod int
	StrategyLongMAPeriod  int
	StrategyMACDFast      int
	StrategyMACDSlow      int
	StrategyMACDSignal    int
	StrategyStrongScore   int
	StrategyWeakScore     int

	// Signal throttling
	MaxSignalsPerDay int
	SignalCooldown   time.Duration // Minimum gap between signals in the same direction

	// Notification
	DingTalkWebhook string
	DingTalkSecret  string

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel

	// Connection Settings
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	if cfg.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}

	// Market
	cfg.Symbol = getEnv("SYMBOL", "BTCUSDT")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}
	cfg.KlineInterval = getEnv("KLINE_INTERVAL", "15m")
	cfg.QuoteAsset = getEnv("QUOTE_ASSET", "USDT")

	// Risk Parameters
	cfg.ATRPeriod, err = getEnvAsIntRequired("ATR_PERIOD", 14)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ATR_PERIOD: %v", err))
	} else if cfg.ATRPeriod <= 0 {
		errs = append(errs, "ATR_PERIOD must be positive")
	}

	cfg.ATRMultiplier, err = getEnvAsFloatRequired("ATR_MULTIPLIER", 1.8)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ATR_MULTIPLIER: %v", err))
	} else if cfg.ATRMultiplier <= 0 {
		errs = append(errs, "ATR_MULTIPLIER must be positive")
	}

	cfg.RiskPerTrade, err = getEnvAsFloatRequired("RISK_PER_TRADE", 0.01)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RISK_PER_TRADE: %v", err))
	} else if cfg.RiskPerTrade <= 0 || cfg.RiskPerTrade > 1.0 {
		errs = append(errs, "RISK_PER_TRADE must be in (0.0, 1.0]")
	}

	cfg.RewardMultiples, err = getEnvAsFloatSlice("REWARD_MULTIPLES", []float64{2.0, 3.0})
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REWARD_MULTIPLES: %v", err))
	} else {
		for _, m := range cfg.RewardMultiples {
			if m <= 0 {
				errs = append(errs, "REWARD_MULTIPLES entries must be positive")
				break
			}
		}
	}

	// Strategy Parameters (using defaults if not set)
	cfg.StrategyRSIPeriod = getEnvAsInt("STRATEGY_RSI_PERIOD", 14)
	cfg.StrategyRSIOverbought = getEnvAsFloat("STRATEGY_RSI_OVERBOUGHT", 70.0)
	cfg.StrategyRSIOversold = getEnvAsFloat("STRATEGY_RSI_OVERSOLD", 30.0)
	cfg.StrategyShortMAPeriod = getEnvAsInt("STRATEGY_SHORT_MA_PERIOD", 20)
	cfg.StrategyLongMAPeriod = getEnvAsInt("STRATEGY_LONG_MA_PERIOD", 50)
	cfg.StrategyMACDFast = getEnvAsInt("STRATEGY_MACD_FAST", 12)
	cfg.StrategyMACDSlow = getEnvAsInt("STRATEGY_MACD_SLOW", 26)
	cfg.StrategyMACDSignal = getEnvAsInt("STRATEGY_MACD_SIGNAL", 9)
	cfg.StrategyStrongScore = getEnvAsInt("STRATEGY_STRONG_SCORE", 60)
	cfg.StrategyWeakScore = getEnvAsInt("STRATEGY_WEAK_SCORE", 20)

	if cfg.StrategyRSIPeriod <= 0 || cfg.StrategyShortMAPeriod <= 0 || cfg.StrategyLongMAPeriod <= 0 ||
		cfg.StrategyMACDFast <= 0 || cfg.StrategyMACDSlow <= 0 || cfg.StrategyMACDSignal <= 0 {
		errs = append(errs, "strategy periods (RSI, MA, MACD) must be positive")
	}
	if cfg.StrategyShortMAPeriod >= cfg.StrategyLongMAPeriod {
		errs = append(errs, "STRATEGY_SHORT_MA_PERIOD must be less than STRATEGY_LONG_MA_PERIOD")
	}
	if cfg.StrategyMACDFast >= cfg.StrategyMACDSlow {
		errs = append(errs, "STRATEGY_MACD_FAST must be less than STRATEGY_MACD_SLOW")
	}
	if cfg.StrategyRSIOverbought <= cfg.StrategyRSIOversold || cfg.StrategyRSIOverbought > 100 || cfg.StrategyRSIOversold < 0 {
		errs = append(errs, "invalid RSI thresholds (Overbought must be > Oversold, between 0-100)")
	}

	// Signal throttling
	cfg.MaxSignalsPerDay, err = getEnvAsIntRequired("MAX_SIGNALS_PER_DAY", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_SIGNALS_PER_DAY: %v", err))
	} else if cfg.MaxSignalsPerDay <= 0 {
		errs = append(errs, "MAX_SIGNALS_PER_DAY must be positive")
	}

	cooldownMinutes := getEnvAsInt("SIGNAL_COOLDOWN_MINUTES", 60)
	if cooldownMinutes < 0 {
		errs = append(errs, "SIGNAL_COOLDOWN_MINUTES cannot be negative")
	}
	cfg.SignalCooldown = time.Duration(cooldownMinutes) * time.Minute

	// Notification
	cfg.DingTalkWebhook = getEnv("DINGTALK_WEBHOOK", "")
	cfg.DingTalkSecret = getEnv("DINGTALK_SECRET", "")
	if cfg.DingTalkWebhook == "" {
		errs = append(errs, "DINGTALK_WEBHOOK must be set")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/signal_bot.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	// Connection Settings
	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 10)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloatSlice parses a comma-separated list of floats,
// e.g. "2.0,3.0,5.0".
func getEnvAsFloatSlice(key string, defaultValue []float64) ([]float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	parts := strings.Split(valueStr, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float value '%s' in list for key %s: %w", part, key, err)
		}
		values = append(values, value)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("list for key %s is empty", key)
	}
	return values, nil
}
