package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/winforge/fived-engine/internal/catalog"
	"github.com/winforge/fived-engine/internal/game"
	"github.com/winforge/fived-engine/pkg/common/logger"
	"github.com/winforge/fived-engine/pkg/kvstore"
)

func newGenCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-catalog",
		Short: "Build the durable combination table (run once at setup)",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()

			kv, err := kvstore.NewFromConfig(cfg.KVStore)
			if err != nil {
				logger.Fatal("Failed to open KV store", "err", err)
			}
			defer kv.Close()

			start := time.Now()
			if err := catalog.Generate(kv); err != nil {
				logger.Fatal("Catalog generation failed", "err", err)
			}
			logger.Info("Catalog generated",
				"entries", game.CatalogSize,
				"elapsed", time.Since(start),
			)
		},
	}
}
