package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"bloodlink/internal/disaster"
	"bloodlink/internal/events"
	"bloodlink/internal/inventory"
	"bloodlink/internal/matching"
	"bloodlink/internal/platform/config"
	"bloodlink/internal/platform/httpserver"
	"bloodlink/internal/platform/logger"
	"bloodlink/internal/platform/metrics"
	platformredis "bloodlink/internal/platform/redis"
	"bloodlink/internal/request"
	httptransport "bloodlink/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher := events.NewPublisher(256, log)
	sink, closeSink, err := buildSink(cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()
	worker := events.NewWorker(sink, publisher.Inbox(), log)

	requestStore := request.NewInMemoryStore()
	requestSvc := request.NewService(requestStore, log, publisher, request.NewMetrics()).
		WithCancelWindow(cfg.CancelWindow)

	inventoryStore, closeDB, err := buildInventoryStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()
	inventorySvc := inventory.NewService(inventoryStore, requestSvc, log, inventory.NewMetrics())

	disasterStore, closeRedis, err := buildDisasterStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeRedis()
	disasterSvc := disaster.NewService(disasterStore, log, publisher, disaster.NewMetrics(),
		cfg.BaseRadiusKm, cfg.DisasterRadiusKm)

	matchingSvc := matching.NewService(requestStore, requestStore, matching.NewInMemoryDirectory(), disasterSvc, log).
		WithCooldown(cfg.DonationCooldown)

	handler := httptransport.NewHandler(requestSvc, inventorySvc, matchingSvc, disasterSvc, log, metrics.New())
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := worker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("starting bloodlink", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildSink selects the event sink: the broker when configured, the log
// otherwise. The returned func releases whatever the sink holds open.
func buildSink(cfg config.Config, log *slog.Logger) (events.Sink, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NewLogSink(log), func() {}, nil
	}
	sink, err := events.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, nil, err
	}
	log.Info("event sink connected", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return sink, sink.Close, nil
}

func buildInventoryStore(ctx context.Context, cfg config.Config, log *slog.Logger) (inventory.Store, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Warn("no postgres DSN configured, inventory ledger is in-memory")
		return inventory.NewInMemoryStore(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	store := inventory.NewPostgres(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { _ = db.Close() }, nil
}

func buildDisasterStore(cfg config.Config, log *slog.Logger) (disaster.Store, func(), error) {
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Warn("no redis URL configured, disaster state is process-local")
		return disaster.NewInMemoryStore(), func() {}, nil
	}
	return disaster.NewRedisStore(client.Client), func() { _ = client.Close() }, nil
}
