package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/api"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/chain"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/config"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/jupiter"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/metrics"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/risk"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/store"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/trade"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/util"
	"github.com/Asadbekabdullaev35/sauce-bot-backend-v1/internal/vault"
)

func main() {
	_ = godotenv.Load() // best-effort

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		boot := util.NewLogger("info")
		boot.Fatal().Err(err).Msg("load config")
	}

	log := util.NewLogger(cfg.App.LogLevel)
	if cfg.App.Env == "dev" {
		log = util.NewConsoleLogger(cfg.App.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	v, err := vault.New(cfg.Vault.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("vault")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	users, err := store.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo")
	}
	defer func() { _ = users.Close(context.Background()) }()

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	swaps := jupiter.NewClient(cfg.Dex.JupiterBase)
	broadcaster := chain.NewRPCBroadcaster(cfg.Dex.RpcURL, cfg.Dex.Commitment)
	limits := risk.Limits{MaxTradeAmount: cfg.Risk.MaxTradeAmount}
	executor := trade.NewExecutor(users, v, swaps, broadcaster, limits, log)

	server := api.NewServer(executor, cfg.Server.APIKey, log)
	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: server.Handler()}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("api up")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
