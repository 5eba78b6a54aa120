package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"byobmarket/config"
	"byobmarket/core/events"
	"byobmarket/core/state"
	"byobmarket/native/market"
	"byobmarket/native/nft"
	"byobmarket/native/token"
	"byobmarket/observability/logging"
	"byobmarket/rpc"
	"byobmarket/storage"
)

const envEnv = "BYOB_ENV"

// logEmitter forwards engine events to structured logs so operators can trail
// marketplace activity without a separate indexer.
type logEmitter struct {
	logger *slog.Logger
}

func (e logEmitter) Emit(evt events.Event) {
	payload := events.Payload(evt)
	if payload == nil {
		e.logger.Info("event", slog.String("type", evt.EventType()))
		return
	}
	attrs := make([]any, 0, len(payload.Attributes)+1)
	attrs = append(attrs, slog.String("type", payload.Type))
	for key, value := range payload.Attributes {
		attrs = append(attrs, slog.String(key, value))
	}
	e.logger.Info("event", attrs...)
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envEnv))
	logger := logging.Setup("byobd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	manager := state.NewManager(db)
	emitter := logEmitter{logger: logger}

	ledger := token.NewLedger()
	ledger.SetState(manager)
	ledger.SetEmitter(emitter)

	registry := nft.NewRegistry()
	registry.SetState(manager)
	registry.SetEmitter(emitter)
	registry.TransferOwnership(market.ModuleAddress)

	engine := market.NewEngine(ledger, registry)
	engine.SetState(manager)
	engine.SetEmitter(emitter)
	engine.SetAuctionDuration(time.Duration(cfg.AuctionDurationSecs) * time.Second)

	admin, hasAdmin, err := cfg.Admin()
	if err != nil {
		logger.Error("Failed to parse admin address", slog.Any("error", err))
		os.Exit(1)
	}
	if hasAdmin {
		ledger.SetAdmin(admin)
		if err := mintGenesisSupply(cfg, ledger, logger); err != nil {
			logger.Error("Failed to mint genesis supply", slog.Any("error", err))
			os.Exit(1)
		}
	}

	server := rpc.NewServer(engine, logger)
	if err := server.Start(cfg.ListenAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// mintGenesisSupply issues the configured initial supply to the administrator
// on first boot. Reboots observe a non-zero supply and skip the mint.
func mintGenesisSupply(cfg *config.Config, ledger *token.Ledger, logger *slog.Logger) error {
	supply, err := cfg.Supply()
	if err != nil {
		return err
	}
	if supply.Sign() == 0 {
		return nil
	}
	existing, err := ledger.TotalSupply()
	if err != nil {
		return err
	}
	if existing.Sign() > 0 {
		return nil
	}
	if err := ledger.Mint(ledger.Admin(), supply); err != nil {
		return err
	}
	logger.Info("minted genesis supply", slog.String("amount", supply.String()))
	return nil
}
