package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/winforge/fived-engine/internal/catalog"
	"github.com/winforge/fived-engine/internal/exposure"
	"github.com/winforge/fived-engine/internal/period"
	"github.com/winforge/fived-engine/internal/selector"
	"github.com/winforge/fived-engine/pkg/common/enum"
	"github.com/winforge/fived-engine/pkg/common/logger"
	"github.com/winforge/fived-engine/pkg/infra"
	"github.com/winforge/fived-engine/pkg/kvstore"
)

// pick runs one selection synchronously and prints the outcome. Handy for
// inspecting what the engine would choose for a live period without
// touching the stored results.
func newPickCmd() *cobra.Command {
	var (
		duration int
		periodID string
	)

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Run a one-shot optimal-result selection for a period",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()

			kv, err := kvstore.NewFromConfig(cfg.KVStore)
			if err != nil {
				logger.Fatal("Failed to open KV store", "err", err)
			}
			defer kv.Close()

			var source catalog.Source
			cache := catalog.NewCache(kv, logger.L())
			if err := cache.Load(); err != nil {
				if !errors.Is(err, catalog.ErrCacheLoad) {
					logger.Fatal("Failed to load catalog", "err", err)
				}
				logger.Warn("Catalog unavailable, using direct enumeration", "err", err)
				source = catalog.Enumerator{}
			} else {
				source = cache
			}

			var redisClient infra.RedisClient
			if cfg.Ledger.Type == enum.LedgerTypeRedis {
				redisClient, err = infra.NewRedisClient(cfg.Redis.URL, cfg.Redis.Password)
				if err != nil {
					logger.Fatal("Failed to connect to redis", "err", err)
				}
				defer redisClient.Close()
			}
			ledger, err := exposure.NewFromConfig(cfg.Ledger, redisClient, cfg.Game.LedgerTTL)
			if err != nil {
				logger.Fatal("Failed to build exposure ledger", "err", err)
			}

			key := period.Key{
				GameType: cfg.Game.GameType,
				Duration: duration,
				Timeline: cfg.Game.Timeline,
				PeriodID: periodID,
			}
			if periodID == "" {
				win := period.Current(cfg.Game.GameType, duration, cfg.Game.Timeline, cfg.Game.FreezeOffset, time.Now())
				key = win.Key
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Game.PrecalcTimeout)
			defer cancel()

			snapshot, err := ledger.Snapshot(ctx, key)
			if err != nil {
				logger.Fatal("Ledger snapshot failed", "period", key.String(), "err", err)
			}

			sel := selector.New(source, cfg.Game.ScanChunks, logger.L())
			start := time.Now()
			outcome := sel.Pick(ctx, snapshot)

			logger.Info("Selection complete",
				"period", key.String(),
				"result", outcome.Combination.Key(),
				"sum", outcome.Combination.Sum,
				"size", outcome.Combination.SumSize().String(),
				"parity", outcome.Combination.SumParity().String(),
				"mode", outcome.Mode,
				"liability", outcome.Liability,
				"ties", outcome.TieCount,
				"scanned", outcome.Scanned,
				"patterns", len(snapshot),
				"elapsed", time.Since(start),
			)
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 60, "Period duration in seconds")
	cmd.Flags().StringVar(&periodID, "period", "", "Period ID (default: current period)")
	return cmd
}
