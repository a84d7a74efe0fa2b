package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Julioneves77/sr-backend-api/internal/config"
	"github.com/Julioneves77/sr-backend-api/internal/logging"
	"github.com/Julioneves77/sr-backend-api/internal/repository"
	"github.com/Julioneves77/sr-backend-api/internal/router"
	"github.com/Julioneves77/sr-backend-api/internal/service"
	"github.com/Julioneves77/sr-backend-api/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	store := repository.NewMemoryTicketRepo(utils.NewCodeGenerator(), nil)

	var events service.EventPublisher = service.NopPublisher{}
	var async *service.AsyncPublisher
	if cfg.Events.Enabled {
		pub := service.NewAMQPPublisher(cfg.BrokerURL(), cfg.Events.Queue)
		defer pub.Close()
		async = service.NewAsyncPublisher(pub, 0, 0, logger)
		events = async
		logger.Info("ticket events enabled", slog.String("queue", cfg.Events.Queue))
	}

	var rdb *redis.Client
	if cfg.Cache.Enabled {
		rdb = config.NewRedisClient(cfg.Redis)
		if rdb == nil {
			logger.Warn("redis unreachable, response cache disabled", slog.String("addr", cfg.Redis.Address()))
		} else {
			defer rdb.Close()
			logger.Info("response cache enabled", slog.Duration("ttl", cfg.Cache.TTL))
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.RegisterRoutes(e, router.Deps{
		Config: cfg,
		Store:  store,
		Events: events,
		Redis:  rdb,
		Logger: logger,
	})

	if cfg.APIKey == "" {
		logger.Warn("API_KEY not set, auth gate disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	go func() {
		logger.Info("server listening", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.String("error", err.Error()))
	}
	if async != nil {
		if err := async.Close(shutdownCtx); err != nil {
			logger.Warn("pending ticket events dropped", slog.String("error", err.Error()))
		}
	}
	logger.Info("server stopped")
}
