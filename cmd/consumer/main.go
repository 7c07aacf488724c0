// Command consumer appends every ticket.confirmed event from RabbitMQ to
// the ticket log file.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/cinema-ticket-booking/internal/config"
	"github.com/iliyamo/cinema-ticket-booking/internal/logging"
	"github.com/iliyamo/cinema-ticket-booking/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := queue.NewConsumer(cfg.Events.RabbitURL, cfg.Events.LogDir, logger)
	logger.Info("ticket consumer started", "log_dir", cfg.Events.LogDir)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("ticket consumer stopped", "error", err)
		os.Exit(1)
	}
}
