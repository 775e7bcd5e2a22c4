package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/PvPrs/matching-engine/config"
	"github.com/PvPrs/matching-engine/pkg/engine"
	"github.com/PvPrs/matching-engine/pkg/eventstore"
	"github.com/PvPrs/matching-engine/pkg/feed"
	"github.com/PvPrs/matching-engine/pkg/gateway"
	postgres_wrapper "github.com/PvPrs/matching-engine/pkg/infra/postgres"
	redis_wrapper "github.com/PvPrs/matching-engine/pkg/infra/redis"
	"github.com/PvPrs/matching-engine/pkg/logging"
	"github.com/PvPrs/matching-engine/pkg/marketdata"
	"github.com/PvPrs/matching-engine/pkg/orderbook"
	"github.com/PvPrs/matching-engine/pkg/participant"
)

const snapshotDepth = 20

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger, err := logging.Init("info", false)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() // nolint

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.LogLevel != "" || cfg.DevMode {
		if logger, err = logging.Init(cfg.LogLevel, cfg.DevMode); err != nil {
			panic(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		// pprof only, bound to loopback
		http.ListenAndServe("localhost:6060", nil) // nolint
	}()

	book := orderbook.NewOrderBook()
	eng := engine.NewMatchingEngine(book, logger)
	loop := engine.NewLoop(eng, cfg.Engine.QueueSize, logger)

	var store eventstore.EventStore = eventstore.NewInMemoryEventStore()
	if cfg.EventsDB != nil {
		db, err := postgres_wrapper.InitPostgresWithBackoff(cfg.EventsDB)
		if err != nil {
			logger.Fatal("connect events db", zap.Error(err))
		}
		store = eventstore.NewSQLEventStore(db)
	}

	base, quote := splitInstrument(cfg.Engine.Instrument)
	registry := participant.NewRegistry(base, quote)
	gw := gateway.New(loop, store, registry, cfg.Engine.Instrument, logger)

	var cache *marketdata.Cache
	if cfg.Redis != nil {
		client, err := redis_wrapper.InitRedis(cfg.Redis)
		if err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		cache = marketdata.NewCache(client)
	}

	var producer *feed.Producer
	if cfg.Kafka != nil && len(cfg.Kafka.Brokers) > 0 {
		producer = feed.NewProducer(feed.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		defer producer.Close() // nolint
	}

	// Process itself performs no I/O: the callback settles balances and
	// publishes in-process, then hands the event and a fresh snapshot to a
	// sink goroutine for the slow paths (SQL, Redis, Kafka).
	type sinkItem struct {
		ev   engine.ExecutionEvent
		snap marketdata.Snapshot
	}
	sinkCh := make(chan sinkItem, 1024)
	eng.RegisterEventCallback(func(ev engine.ExecutionEvent) {
		registry.ApplyExecution(ev)
		snap := marketdata.BuildSnapshot(cfg.Engine.Instrument, book, snapshotDepth)
		gw.PublishSnapshot(snap)
		gw.PublishExecution(ev)
		select {
		case sinkCh <- sinkItem{ev: ev, snap: snap}:
		default:
			logger.Warn("event sink backlog full, dropping persistence for one event")
		}
	})

	go func() {
		for item := range sinkCh {
			if err := store.Append(context.Background(), item.ev); err != nil {
				logger.Error("append event", zap.Error(err))
			}
			if cache != nil {
				if err := cache.Publish(context.Background(), item.snap); err != nil {
					logger.Warn("publish snapshot", zap.Error(err))
				}
			}
			if producer != nil {
				if err := producer.PublishExecution(context.Background(), cfg.Engine.Instrument, item.ev); err != nil {
					logger.Warn("publish trades", zap.Error(err))
				}
			}
		}
	}()

	go loop.Run(ctx)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: gw.Router(),
	}
	go func() {
		logger.Info("gateway listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("instrument", cfg.Engine.Instrument),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	close(sinkCh)
	logger.Info("exited cleanly")
}

// splitInstrument derives base/quote assets from an instrument symbol like
// BTC-USD.
func splitInstrument(instrument string) (string, string) {
	parts := strings.SplitN(instrument, "-", 2)
	if len(parts) != 2 {
		return instrument, "USD"
	}
	return parts[0], parts[1]
}
