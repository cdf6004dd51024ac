package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/corollary/warehouse/config"
	"github.com/corollary/warehouse/internal/adapter/handler"
	"github.com/corollary/warehouse/internal/adapter/storage"
	"github.com/corollary/warehouse/internal/core/domain"
	"github.com/corollary/warehouse/internal/core/service"
	"github.com/corollary/warehouse/internal/port"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Durable storage (SQLite)
	store, db, err := storage.Open(ctx, cfg.SQLite.Path)
	if err != nil {
		logger.Fatal("failed to open durable storage", zap.Error(err))
	}
	logger.Info("durable storage ready", zap.String("path", cfg.SQLite.Path))

	// Optional Redis-backed duplicate-request guard
	var guard port.IdempotencyGuard
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		guard = storage.NewRedisAdapter(rdb)
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Engine: loads mirrors and recovers queue state from the ledger
	engine, err := service.NewEngine(ctx, store, logger, service.Options{
		IDLength:      cfg.Issuer.IDLength,
		IDMaxAttempts: cfg.Issuer.IDMaxAttempts,
	})
	if err != nil {
		logger.Fatal("failed to start engine", zap.Error(err))
	}

	// Seed the default location; the engine itself assumes none.
	if cfg.Default.LocationName != "" {
		_, err := engine.AddLocation(ctx, cfg.Default.LocationName, cfg.Default.LocationCapacity)
		if err != nil && !errors.Is(err, domain.ErrDuplicateName) {
			logger.Fatal("failed to seed default location", zap.Error(err))
		}
	}

	// HTTP server
	httpHandler := handler.NewHTTPHandler(engine, guard, logger, cfg.Default.LocationName)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.Server.HTTPPort,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	if rdb != nil {
		rdb.Close()
	}
	db.Close()
	logger.Info("connections closed")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Server.AppEnv == "dev" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = cfg.Logger.Encoding

	return zcfg.Build()
}
