package config

import (
	"time"

	"github.com/winforge/fived-engine/pkg/common/enum"
)

type Config struct {
	Environment string     `yaml:"environment" validate:"required,oneof=production development"`
	Game        GameCfg    `yaml:"game" validate:"required"`
	NATS        NATSCfg    `yaml:"nats" validate:"required"`
	Redis       RedisCfg   `yaml:"redis"`
	KVStore     KVStoreCfg `yaml:"kvstore" validate:"required"`
	Ledger      LedgerCfg  `yaml:"ledger"`
}

// GameCfg drives the result engine: which period durations run, how long
// before period close pre-calculation fires, and how the catalog scan is
// partitioned.
type GameCfg struct {
	GameType       string        `yaml:"game_type"`
	Timeline       string        `yaml:"timeline"`
	Durations      []int         `yaml:"durations" validate:"required,min=1,dive,gt=0"`
	FreezeOffset   time.Duration `yaml:"freeze_offset"`
	ScanChunks     int           `yaml:"scan_chunks"`
	PrecalcTimeout time.Duration `yaml:"precalc_timeout"`
	ResultTTL      time.Duration `yaml:"result_ttl"`
	LedgerTTL      time.Duration `yaml:"ledger_ttl"`
}

type NATSCfg struct {
	URL           string `yaml:"url" validate:"required"`
	SubjectPrefix string `yaml:"subject_prefix" validate:"required"`
}

type RedisCfg struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

type KVStoreCfg struct {
	Type   enum.KVStoreType `yaml:"type" validate:"required,oneof=badger memory"`
	Badger BadgerKVCfg      `yaml:"badger"`
}

type BadgerKVCfg struct {
	Directory string `yaml:"directory"`
	Prefix    string `yaml:"prefix"`
}

type LedgerCfg struct {
	Type enum.LedgerType `yaml:"type" validate:"required,oneof=redis memory"`
}

const (
	DefaultFreezeOffset   = 5 * time.Second
	DefaultScanChunks     = 8
	DefaultPrecalcTimeout = 3 * time.Second
	DefaultResultTTL      = 10 * time.Minute
	DefaultLedgerTTL      = time.Hour
	DefaultGameType       = "fiveD"
	DefaultTimeline       = "default"
)

// ApplyDefaults fills zero-valued game settings.
func (g *GameCfg) ApplyDefaults() {
	if g.GameType == "" {
		g.GameType = DefaultGameType
	}
	if g.Timeline == "" {
		g.Timeline = DefaultTimeline
	}
	if g.FreezeOffset <= 0 {
		g.FreezeOffset = DefaultFreezeOffset
	}
	if g.ScanChunks <= 0 {
		g.ScanChunks = DefaultScanChunks
	}
	if g.PrecalcTimeout <= 0 {
		g.PrecalcTimeout = DefaultPrecalcTimeout
	}
	if g.ResultTTL <= 0 {
		g.ResultTTL = DefaultResultTTL
	}
	if g.LedgerTTL <= 0 {
		g.LedgerTTL = DefaultLedgerTTL
	}
}
