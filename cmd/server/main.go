package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Hicham558/HICHAM03041979--sub000/internal/cache"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/config"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/httpapi"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/logging"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/service"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/snapshot"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store"
	"github.com/Hicham558/HICHAM03041979--sub000/internal/store/memory"
	pgstore "github.com/Hicham558/HICHAM03041979--sub000/internal/store/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}

	cfg := config.Load()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{
		Level:         cfg.LogLevel,
		Encoding:      cfg.LogEncoding,
		IsDevelopment: cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		repo   store.Repository
		source snapshot.Source
	)
	closers := make([]func() error, 0, 2)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL, pgstore.Options{
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
		})
		if err != nil {
			logger.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		if cfg.IsDevelopment() {
			if err := pg.EnsureSchema(ctx); err != nil {
				logger.Fatal("failed to apply schema", zap.Error(err))
			}
		}
		repo, source = pg, pg
		closers = append(closers, pg.Close)
		logger.Info("repository: postgres")
	} else {
		mem := memory.NewSeeded(logger)
		repo, source = mem, mem
		logger.Info("repository: in-memory")
	}

	opts := service.Options{
		Logger:         logger,
		ReportCacheTTL: cfg.ReportCacheTTL(),
		ExportLockTTL:  cfg.ExportLockTTL(),
		Exporter: snapshot.NewExporter(source,
			snapshot.WithMaxBytes(cfg.ExportMaxBytes),
			snapshot.WithLogger(logger),
		),
	}
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		projections := cache.NewRedisProjectionCache(client)
		if err := projections.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using noop cache and in-process locks", zap.Error(err))
			_ = projections.Close()
		} else {
			opts.Cache = projections
			opts.Locker = cache.NewRedisLocker(client)
			closers = append(closers, projections.Close)
			logger.Info("cache: redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		logger.Info("cache: noop")
	}

	svc := service.New(repo, opts)
	api := httpapi.New(svc, logger, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("gestock backend listening", zap.String("addr", cfg.Address()), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Error("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

func validateConfig(cfg config.Config) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", cfg.Port)
	}
	if cfg.DBMaxOpenConns < 1 || cfg.DBMaxIdleConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS and DB_MAX_IDLE_CONNS must be positive")
	}
	if cfg.DBMaxIdleConns > cfg.DBMaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) cannot exceed DB_MAX_OPEN_CONNS (%d)", cfg.DBMaxIdleConns, cfg.DBMaxOpenConns)
	}
	if cfg.ReportCacheTTLSeconds < 1 {
		return fmt.Errorf("REPORT_CACHE_TTL_SECONDS must be positive")
	}
	if cfg.ExportLockTTLSeconds < 1 {
		return fmt.Errorf("EXPORT_LOCK_TTL_SECONDS must be positive")
	}
	if cfg.ExportMaxBytes < 1 {
		return fmt.Errorf("EXPORT_MAX_BYTES must be positive")
	}
	if cfg.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB cannot be negative")
	}
	return nil
}
