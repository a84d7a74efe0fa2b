package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumerConfig configures StartTicketConsumer.
type ConsumerConfig struct {
	URL     string // broker url
	Queue   string // durable queue to consume
	LogPath string // file receiving one line per event
}

// StartTicketConsumer connects to RabbitMQ, declares the queue (durable) and
// appends every ticket event to cfg.LogPath.  It reconnects with exponential
// backoff (1s up to 30s) and only returns when ctx is cancelled.  Messages
// that cannot be handled are rejected without requeue.
func StartTicketConsumer(ctx context.Context, cfg ConsumerConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			logger.Warn("ticket-consumer: dial failed", slog.String("error", err.Error()), slog.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, cfg, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("ticket-consumer: consume loop ended, reconnecting", slog.String("error", err.Error()))
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, logger *slog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("ticket-consumer: set QoS failed", slog.String("error", err.Error()))
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := HandleMessage(cfg.LogPath, d.Body); err != nil {
			logger.Error("ticket-consumer: handle message failed", slog.String("error", err.Error()))
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// HandleMessage decodes one TicketEvent and appends it to the file at path,
// creating parent directories as needed.
func HandleMessage(path string, body []byte) error {
	var ev TicketEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.TicketID <= 0 {
		return fmt.Errorf("invalid event: type=%q ticket_id=%d", ev.Type, ev.TicketID)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders an event as a single human-friendly log line.
func FormatLine(ev TicketEvent) string {
	keys := "[]"
	if len(ev.UpdatedKeys) > 0 {
		keys = fmt.Sprintf("[%s]", strings.Join(ev.UpdatedKeys, ","))
	}
	return fmt.Sprintf("[%s] %s | ticket_id=%d | codigo=%s | keys=%s\n",
		ev.OccurredAt, ev.Type, ev.TicketID, ev.Codigo, keys)
}
