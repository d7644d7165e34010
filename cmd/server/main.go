package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smarttaskflow/internal/config"
	"smarttaskflow/internal/handler"
	"smarttaskflow/internal/httpserver"
	"smarttaskflow/internal/planner"
	"smarttaskflow/internal/repository"
	"smarttaskflow/internal/service/auth"
	"smarttaskflow/internal/service/task"
	"smarttaskflow/pkg/db"
	"smarttaskflow/pkg/logger"
	"smarttaskflow/pkg/mq"
	"smarttaskflow/pkg/outbox"
	redisclient "smarttaskflow/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	lg := logger.NewLogger(cfg.Log.Level)
	defer lg.Sync()

	if err := cfg.ValidateServer(); err != nil {
		lg.Fatal("Invalid configuration", zap.Error(err))
	}

	lg.Info("Starting smarttaskflow server...",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("db_host", cfg.DB.Host),
		zap.String("gemini_model", cfg.Gemini.Model),
	)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, lg)
	if err != nil {
		lg.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()
	lg.Info("Database connection established successfully")

	// Redis：会话黑名单
	rdb, err := redisclient.NewRedisClient(cfg.Redis)
	if err != nil {
		lg.Fatal("Failed to init Redis", zap.Error(err))
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 任务事件先写 outbox，MQ 恢复后再投递
	outboxRepo := outbox.NewRepository(dbConn)
	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		outbox.NewDispatcher(outboxRepo, lg).Run(ctx, dialPublisher(cfg.MQ.URL))
	}()

	taskRepo := repository.NewTaskRepository(dbConn, lg)
	userRepo := repository.NewUserRepository(dbConn, lg)

	plannerSvc := planner.NewService(planner.NewGeminiClient(cfg.Gemini), lg)
	authSvc := auth.NewService(userRepo, auth.NewRedisRevoker(rdb), cfg.JWT.Secret, cfg.JWT.TTL, lg)
	taskSvc := task.NewService(taskRepo, outbox.NewPublisher(outboxRepo), lg)

	gin.SetMode(gin.ReleaseMode)
	router := httpserver.NewRouter(httpserver.Deps{
		Plan:     handler.NewPlanHandler(plannerSvc, lg),
		Auth:     handler.NewAuthHandler(authSvc, lg),
		Tasks:    handler.NewTaskHandler(taskSvc, lg),
		Sessions: authSvc,
		DB:       dbConn,
		Logger:   lg,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	<-ctx.Done()

	lg.Info("Shutting down server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		lg.Info("HTTP server stopped")
	}
	<-dispatcherDone
	lg.Info("Server shutdown complete")
}

// dialPublisher 供 Dispatcher 断线重连使用
func dialPublisher(url string) outbox.Dialer {
	return func() (outbox.Sender, error) {
		p, err := mq.NewPublisher(url)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}
