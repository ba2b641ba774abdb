package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/railgun-community/broadcaster-directory/pkg/api"
	"github.com/railgun-community/broadcaster-directory/pkg/chains"
	"github.com/railgun-community/broadcaster-directory/pkg/directory"
	"github.com/railgun-community/broadcaster-directory/pkg/feed"
	"github.com/railgun-community/broadcaster-directory/pkg/health"
	"github.com/railgun-community/broadcaster-directory/pkg/metrics"
	"github.com/railgun-community/broadcaster-directory/pkg/topics"
	"github.com/railgun-community/broadcaster-directory/pkg/transport"
)

func main() {
	PrintVersion()
	_ = godotenv.Load()

	cfg := loadConfig()
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	chainCfgs, err := chains.LoadAll(cfg.ChainsDir, logger)
	if err != nil {
		logger.Fatal("chains_load_error", zap.Error(err))
	}
	chain, ok := chainCfgs[cfg.Chain]
	if !ok {
		logger.Fatal("unknown_chain", zap.String("chain", cfg.Chain))
	}
	feeTopic := topics.Fee(chain.ClusterID, chain.ChainID)
	logger.Info("chain_selected",
		zap.String("name", chain.Name),
		zap.Uint64("chainId", chain.ChainID),
		zap.String("feeTopic", feeTopic),
	)

	node, err := transport.NewNodeClient(cfg.WakuRestURL, cfg.TorSocks, 10*time.Second, logger)
	if err != nil {
		logger.Fatal("node_client_error", zap.Error(err))
	}

	dir := directory.New()
	wsAPI := api.NewWS(logger)

	f := feed.New(node, dir, feeTopic, logger)
	f.OnUpdate = wsAPI.OnUpdate
	go func() {
		if err := f.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("feed_stopped", zap.Error(err))
		}
	}()

	checker, err := health.New(cfg.WakuRestURL, cfg.TorSocks, 5*time.Second, logger)
	if err != nil {
		logger.Fatal("health_checker_error", zap.Error(err))
	}
	go checker.Loop(ctx, 30*time.Second)

	registerRoutes(dir, checker, wsAPI, logger)
	startServer(cfg.Host, cfg.Port, logger)
}
