package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"troop-cookies/internal/api"
	"troop-cookies/internal/booth"
	boothdb "troop-cookies/internal/booth/db"
	"troop-cookies/internal/catalog"
	"troop-cookies/internal/config"
	"troop-cookies/internal/database"
	"troop-cookies/internal/database/migrations"
	"troop-cookies/internal/kafka"
	"troop-cookies/internal/ledger"
	ledgerdb "troop-cookies/internal/ledger/db"
	"troop-cookies/internal/logger"
)

func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		logger.Info("REDIS", "Catalog cache disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("REDIS", fmt.Sprintf("Redis unavailable at %s, catalog reads go to the database: %v", cfg.Addr, err))
		client.Close()
		return nil
	}
	logger.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Addr, client.Options().DB))
	return client
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, ".env file not found, using environment variables")
	}
	cfg := config.Load()

	logger, err := logger.New(logger.Options{Service: "troop-cookies", Dir: cfg.Log.Dir, Level: cfg.Log.Level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("APP", "Starting booth reconciliation service")
	ctx := context.Background()

	if cfg.Database.Driver == "postgres" && cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(database.PostgresDSN(cfg.Database), cfg.Database.Schema, logger)
		if err := runner.MigrateUp(); err != nil {
			logger.Fatal("MIGRATE", err.Error())
		}
		if err := runner.Close(); err != nil {
			logger.Warn("MIGRATE", err.Error())
		}
	}

	bunDB, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	catalogDB := &catalog.DB{Bun: bunDB}
	var provider catalog.Provider = catalogDB
	var cache *catalog.CachedProvider
	if redisClient := connectRedis(ctx, cfg.Redis, logger); redisClient != nil {
		defer redisClient.Close()
		cache = catalog.NewCachedProvider(catalogDB, redisClient, cfg.Redis.CacheTTL, logger)
		provider = cache
	}

	var boothEvents booth.EventPublisher
	var ledgerEvents ledger.EventPublisher
	if cfg.Kafka.Enabled {
		logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers %v", cfg.Kafka.Brokers))
		if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topics.All(), logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics, logger)
		defer producer.Close()
		boothEvents = producer
		ledgerEvents = producer
		logger.Info("KAFKA", "Kafka producer initialized successfully")
	}

	boothService := booth.NewService(&boothdb.DB{Bun: bunDB}, provider, boothEvents, logger)
	ledgerService := ledger.NewService(&ledgerdb.DB{Bun: bunDB}, provider, ledgerEvents, logger)

	handler := api.NewHandler(boothService, ledgerService, catalogDB, logger, cfg.Season.ProgramYear)
	if cache != nil {
		handler.Cache = cache
	}

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(api.RequestLogger(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := bunDB.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Route("/api", handler.RegisterRoutes)
	logger.Info("ROUTER", "Booth, ledger and catalog routes registered under /api")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Booth service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Booth service shutdown complete")
	}
}
