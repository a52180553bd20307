package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/wager-ledger/internal/ledger-service/engine"
	lhttp "github.com/radieske/wager-ledger/internal/ledger-service/http"
	"github.com/radieske/wager-ledger/internal/ledger-service/odds"
	kpub "github.com/radieske/wager-ledger/internal/ledger-service/producer"
	"github.com/radieske/wager-ledger/internal/ledger-service/repo"
	"github.com/radieske/wager-ledger/internal/ledger-service/users"
	"github.com/radieske/wager-ledger/internal/shared/cache"
	"github.com/radieske/wager-ledger/internal/shared/config"
	"github.com/radieske/wager-ledger/internal/shared/db"
	"github.com/radieske/wager-ledger/internal/shared/kafka"
	"github.com/radieske/wager-ledger/internal/shared/logger"
	"github.com/radieske/wager-ledger/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New("ledger-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "ledger-service"), zap.String("env", cfg.Env))

	// Postgres: carteiras e apostas
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: cotação corrente publicada pelo feed de odds
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}

	// Kafka writers (bet_placed, bet_settled)
	placedWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer placedWriter.Close()
	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetSettled)
	defer settledWriter.Close()

	// deps
	store := engine.NewStore(repo.NewPostgres(pg))
	directory := users.New(cfg.UserDirectoryURL)
	ledger := engine.New(log, store, directory, cfg.HouseUserID)
	checker := odds.NewValidator(rdb, 0.001)
	publ := kpub.NewKafkaPublisher(placedWriter, settledWriter)

	// HTTP público
	api := lhttp.NewServer(log, ledger, checker, publ)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	log.Info("metrics/health", zap.String("addr", ":"+cfg.MetricsPort))

	log.Info("ledger-service listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}
