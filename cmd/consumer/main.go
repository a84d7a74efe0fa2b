// Command consumer appends ticket lifecycle events from RabbitMQ to a log
// file.  It is an optional companion of the API server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Julioneves77/sr-backend-api/internal/config"
	"github.com/Julioneves77/sr-backend-api/internal/logging"
	"github.com/Julioneves77/sr-backend-api/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("ticket consumer starting",
		slog.String("queue", cfg.Events.Queue),
		slog.String("log_path", cfg.TicketLogPath),
	)
	err = queue.StartTicketConsumer(ctx, queue.ConsumerConfig{
		URL:     cfg.BrokerURL(),
		Queue:   cfg.Events.Queue,
		LogPath: cfg.TicketLogPath,
	}, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("ticket consumer stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
