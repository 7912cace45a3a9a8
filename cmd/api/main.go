package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"todoapp/internal/cache"
	"todoapp/internal/config"
	"todoapp/internal/events"
	"todoapp/internal/handlers"
	"todoapp/internal/importer"
	"todoapp/internal/logging"
	"todoapp/internal/services"
	"todoapp/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", "err", err)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", "driver", cfg.DatabaseDriver, "err", err)
	}
	defer db.Close()

	var todoCache cache.ToDoCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, caching disabled", "addr", cfg.RedisAddr, "err", err)
		} else {
			todoCache = cache.NewRedisCache(rdb, cfg.RedisTTL)
			logger.Info("redis cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.RedisTTL)
		}
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.KafkaEnabled() {
		producer := events.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		logger.Info("kafka events enabled", "broker", cfg.KafkaBroker, "topic", cfg.KafkaTopic)
	}

	todos := services.NewToDoService(
		store.NewToDoRepo(db),
		todoCache,
		publisher,
		logger,
		importer.Options{StrictCSV: cfg.CSVStrict},
	)
	h := handlers.New(db, todos, store.NewUserRepo(db), cfg.JWTKey, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: h.Router(),
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
