package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"btcSignalBot/config"
	"btcSignalBot/internal/adapters/binanceclient"
	"btcSignalBot/internal/adapters/dingtalk"
	"btcSignalBot/internal/adapters/logger"
	"btcSignalBot/internal/adapters/sqlite"
	"btcSignalBot/internal/app"
	"btcSignalBot/internal/strategy"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing database repository")
		}
	}()
	appLogger.Info(context.Background(), "Database repository initialized")

	// 4. Initialize Market Data Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:               cfg.APIKey,
		SecretKey:            cfg.SecretKey,
		UseTestnet:           cfg.IsTestnet,
		Logger:               appLogger,
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	appLogger.Info(context.Background(), "Binance client initialized")

	// 5. Initialize Notifier (DingTalk Adapter)
	notifier, err := dingtalk.New(dingtalk.Config{
		WebhookURL: cfg.DingTalkWebhook,
		Secret:     cfg.DingTalkSecret,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize DingTalk notifier")
		log.Fatalf("FATAL: Failed to initialize DingTalk notifier: %v", err)
	}
	appLogger.Info(context.Background(), "DingTalk notifier initialized")

	// 6. Initialize Strategy
	strat, err := strategy.New(strategy.Config{
		RSIPeriod:     cfg.StrategyRSIPeriod,
		RSIOverbought: cfg.StrategyRSIOverbought,
		RSIOversold:   cfg.StrategyRSIOversold,
		ShortMAPeriod: cfg.StrategyShortMAPeriod,
		LongMAPeriod:  cfg.StrategyLongMAPeriod,
		MACDFast:      cfg.StrategyMACDFast,
		MACDSlow:      cfg.StrategyMACDSlow,
		MACDSignal:    cfg.StrategyMACDSignal,
		StrongScore:   cfg.StrategyStrongScore,
		WeakScore:     cfg.StrategyWeakScore,
	}, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize signal strategy")
		log.Fatalf("FATAL: Failed to initialize signal strategy: %v", err)
	}
	appLogger.Info(context.Background(), "Signal strategy initialized")

	// 7. Initialize Application Service
	signalService, err := app.NewSignalService(
		cfg,
		appLogger,
		binanceClient,
		repo,
		notifier,
		strat,
	)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize signal service")
		log.Fatalf("FATAL: Failed to initialize signal service: %v", err)
	}
	appLogger.Info(context.Background(), "Signal service initialized")

	// 8. Start the Service
	if err := signalService.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Signal service exited with error")
		log.Fatalf("FATAL: Signal service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
