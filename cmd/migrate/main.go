package main

import (
	"flag"

	"go.uber.org/zap"

	"github.com/PvPrs/matching-engine/config"
	"github.com/PvPrs/matching-engine/pkg/infra"
	"github.com/PvPrs/matching-engine/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	source := flag.String("source", "file://migrations", "migration source")
	flag.Parse()

	logger, err := logging.Init("debug", true)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // nolint

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.EventsDB == nil || cfg.EventsDB.MigrationConnURL == "" {
		logger.Fatal("events_db.migration_conn_url is required")
	}

	if err := infra.Migrate(*source, cfg.EventsDB.MigrationConnURL); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
}
