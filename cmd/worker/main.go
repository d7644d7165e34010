package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	mqcontracts "smarttaskflow/contracts/mq"
	"smarttaskflow/internal/config"
	"smarttaskflow/internal/mqhandler"
	"smarttaskflow/internal/repository"
	pkgconfig "smarttaskflow/pkg/config"
	"smarttaskflow/pkg/db"
	"smarttaskflow/pkg/logger"
	"smarttaskflow/pkg/mq"
	redisclient "smarttaskflow/pkg/redis"
	"smarttaskflow/pkg/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logger.NewLogger(cfg.Log.Level)
	defer lg.Sync()

	lg.Info("Starting activity worker...",
		zap.String("queue", cfg.Worker.Queue),
		zap.String("routing_key", mqcontracts.RoutingKeyTaskAll),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.NewConnection(cfg.DB, lg)
	if err != nil {
		lg.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	rdb, err := redisclient.NewRedisClient(cfg.Redis)
	if err != nil {
		lg.Fatal("Redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, cfg.Worker.DedupeTTL, lg)
	activityRepo := repository.NewActivityRepository(dbConn, lg)
	activityHandler := mqhandler.NewTaskActivityHandler(activityRepo, deduper, lg)

	consumer, err := mq.NewConsumer(cfg.MQ.URL, cfg.Worker.Queue, mqcontracts.RoutingKeyTaskAll, lg)
	if err != nil {
		lg.Fatal("Failed to init consumer", zap.Error(err))
	}
	defer consumer.Close()
	consumer.SetHandler(activityHandler.Handle)

	// /metrics 和 /healthz
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !consumer.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{
		Addr:              pkgconfig.GetEnv("WORKER_METRICS_ADDR", ":9091"),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("Metrics server failed", zap.Error(err))
		}
	}()

	if err := consumer.StartConsuming(ctx); err != nil {
		lg.Error("Consumer stopped with error", zap.Error(err))
	}

	lg.Info("Shutting down activity worker...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	lg.Info("Activity worker shutdown complete")
}
