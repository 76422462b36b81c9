package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/winforge/fived-engine/pkg/common/config"
	"github.com/winforge/fived-engine/pkg/common/logger"
)

var (
	configPath string
	debug      bool
)

func main() {
	root := &cobra.Command{
		Use:   "fived",
		Short: "Exposure-based result engine for the 5D dice-sum game",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			logger.Init(&logger.Options{
				Level:      level,
				TimeFormat: time.RFC3339,
			})
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to configuration file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logs")

	root.AddCommand(newServeCmd(), newGenCatalogCmd(), newPickCmd(), newTailCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", "path", configPath, "err", err)
	}
	logger.Info("Config loaded", "path", configPath)
	return cfg
}
