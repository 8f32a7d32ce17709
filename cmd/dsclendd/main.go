package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"dsclend/config"
	"dsclend/crypto"
	"dsclend/gateway"
	"dsclend/native/bank"
	"dsclend/native/lending"
	"dsclend/observability/logging"
	"dsclend/observability/metrics"
	"dsclend/state"
	"dsclend/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	memory := flag.Bool("memory", false, "Use an in-memory database instead of the data directory")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("DSCLEND_ENV"))
	logger := logging.Setup("dsclendd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if env != "" {
		cfg.Environment = env
	}

	var db storage.Database
	if *memory {
		db = storage.NewMemDB()
	} else {
		leveldb, err := storage.NewLevelDB(cfg.DataDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to open database: %v", err))
		}
		db = leveldb
	}
	defer db.Close()

	authorityKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		panic(fmt.Sprintf("Failed to generate authority key: %v", err))
	}
	authority := authorityKey.PubKey().Address()

	riskCfg, err := cfg.Lending.RiskConfig(authority)
	if err != nil {
		logger.Error("Invalid lending configuration", slog.Any("error", err))
		os.Exit(1)
	}

	store := state.NewStore(db)
	ledger := bank.NewLedger(store, riskCfg.DebtAsset)
	emitter := metrics.NewEmitter(nil)
	for _, eventType := range []string{
		lending.EventTypeCollateralDeposited,
		lending.EventTypeDebtMinted,
		lending.EventTypeCollateralRedeemed,
		lending.EventTypeLiquidated,
		lending.EventTypeLiquiditySupplied,
		lending.EventTypeLiquidityRedeemed,
	} {
		metrics.Lending().InitEventType(eventType)
	}

	engine, err := lending.NewEngine(riskCfg)
	if err != nil {
		logger.Error("Failed to construct lending engine", slog.Any("error", err))
		os.Exit(1)
	}
	engine.SetState(store)
	engine.SetBridge(ledger)
	engine.SetEmitter(emitter)

	liquidity := lending.NewLiquidityEngine()
	liquidity.SetState(store)
	liquidity.SetBridge(ledger)
	liquidity.SetEmitter(emitter)

	for _, asset := range cfg.Assets {
		vault, err := crypto.DecodeAddress(asset.Vault)
		if err != nil {
			logger.Error("Invalid vault address", slog.String("asset", asset.Symbol), slog.Any("error", err))
			os.Exit(1)
		}
		if err := engine.RegisterAsset(asset.Symbol, vault, asset.Price); err != nil {
			logger.Error("Failed to register asset", slog.String("asset", asset.Symbol), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Registered collateral asset",
			slog.String("asset", asset.Symbol),
			slog.Uint64("price", asset.Price),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := gateway.NewServer(engine, liquidity, logger)
	logger.Info("Gateway listening", slog.String("address", cfg.ListenAddress))
	if err := server.Run(ctx, cfg.ListenAddress); err != nil {
		logger.Error("Gateway terminated", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
