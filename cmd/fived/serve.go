package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/winforge/fived-engine/internal/catalog"
	"github.com/winforge/fived-engine/internal/delivery"
	"github.com/winforge/fived-engine/internal/engine"
	"github.com/winforge/fived-engine/internal/exposure"
	"github.com/winforge/fived-engine/internal/scheduler"
	"github.com/winforge/fived-engine/internal/selector"
	"github.com/winforge/fived-engine/pkg/common/config"
	"github.com/winforge/fived-engine/pkg/common/enum"
	"github.com/winforge/fived-engine/pkg/common/logger"
	"github.com/winforge/fived-engine/pkg/events"
	"github.com/winforge/fived-engine/pkg/infra"
	"github.com/winforge/fived-engine/pkg/kvstore"
	"github.com/winforge/fived-engine/pkg/lock"
	"github.com/winforge/fived-engine/pkg/retry"
	"github.com/winforge/fived-engine/pkg/store/resultstore"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pre-calculation and result-delivery engine",
		Run: func(cmd *cobra.Command, args []string) {
			runServe(loadConfig())
		},
	}
}

func runServe(cfg *config.Config) {
	kv, err := kvstore.NewFromConfig(cfg.KVStore)
	if err != nil {
		logger.Fatal("Failed to open KV store", "err", err)
	}

	// Catalog cache: degrade to direct enumeration when the durable table is
	// unreachable, at a per-scan compute cost.
	var source catalog.Source
	cache := catalog.NewCache(kv, logger.L())
	if err := cache.Load(); err != nil {
		if errors.Is(err, catalog.ErrCacheLoad) {
			logger.Error("Catalog unavailable, running degraded with direct enumeration", "err", err)
			source = catalog.Enumerator{}
		} else {
			logger.Fatal("Failed to load catalog", "err", err)
		}
	} else {
		source = cache
	}

	var redisClient infra.RedisClient
	if cfg.Ledger.Type == enum.LedgerTypeRedis {
		err := retry.Exponential(func() error {
			var connErr error
			redisClient, connErr = infra.NewRedisClient(cfg.Redis.URL, cfg.Redis.Password)
			return connErr
		}, retry.ExponentialConfig{
			InitialInterval: time.Second,
			MaxElapsedTime:  30 * time.Second,
			OnRetry: func(err error, next time.Duration) {
				logger.Warn("Redis connect failed, retrying", "err", err, "next", next)
			},
		})
		if err != nil {
			logger.Fatal("Failed to connect to redis", "err", err)
		}
	}

	ledger, err := exposure.NewFromConfig(cfg.Ledger, redisClient, cfg.Game.LedgerTTL)
	if err != nil {
		logger.Fatal("Failed to build exposure ledger", "err", err)
	}

	var locker lock.Locker
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient, cfg.Game.GameType)
	} else {
		locker = lock.NewMemoryLocker()
	}

	nc, err := infra.GetNATSConnection(cfg.NATS.URL)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "err", err)
	}
	emitter := events.NewEmitter(nc, cfg.NATS.SubjectPrefix)

	results := resultstore.New(kv)
	sel := selector.New(source, cfg.Game.ScanChunks, logger.L())
	precalc := scheduler.NewPreCalculator(
		ledger, sel, results, locker,
		cfg.Game.PrecalcTimeout, cfg.Game.ResultTTL, logger.L(),
	)
	deliv := delivery.New(results, ledger, sel, emitter, locker, cfg.Game.ResultTTL, logger.L())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := engine.NewManager(kv, emitter, redisClient)
	for _, duration := range cfg.Game.Durations {
		manager.AddWorkers(scheduler.NewWorker(
			ctx, precalc, deliv, emitter,
			cfg.Game.GameType, cfg.Game.Timeline, duration, cfg.Game.FreezeOffset,
		))
	}
	manager.Start()

	logger.Info("Engine is running. Press Ctrl+C to stop.",
		"durations", cfg.Game.Durations,
		"freeze_offset", cfg.Game.FreezeOffset,
		"catalog_cached", cache.Loaded(),
	)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("Shutting down engine...")
	cancel()
	manager.Stop()
	logger.Info("Engine stopped")
}
