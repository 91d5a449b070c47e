package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port         string        `env:"PORT" env-default:"8080"`
	DBPath       string        `env:"DB_PATH" env-default:"countervalues.db"`
	APIEndpoint  string        `env:"COUNTERVALUES_API" env-default:"https://countervalues.live.ledger.com"`
	SyncInterval time.Duration `env:"SYNC_INTERVAL" env-default:"10m"`
	Concurrency  int           `env:"FETCH_CONCURRENCY" env-default:"10"`
	AutofillGaps bool          `env:"AUTOFILL_GAPS" env-default:"true"`
	// TrackedPairs lists pairs as FROM:TO tickers, optionally with a
	// start date: FROM:TO:YYYY-MM-DD.
	TrackedPairs []string `env:"TRACKED_PAIRS" env-separator:"," env-default:"BTC:USD,ETH:USD"`
}

func MustLoad() *Config {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}
	return &cfg
}
