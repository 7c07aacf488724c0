package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/catalog"
	"github.com/iliyamo/cinema-ticket-booking/internal/config"
	"github.com/iliyamo/cinema-ticket-booking/internal/gateway"
	"github.com/iliyamo/cinema-ticket-booking/internal/handler"
	"github.com/iliyamo/cinema-ticket-booking/internal/logging"
	"github.com/iliyamo/cinema-ticket-booking/internal/middleware"
	"github.com/iliyamo/cinema-ticket-booking/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// Redis is optional unless the lock needs it.
	var rdb *redis.Client
	if cfg.RateLimit.Enabled || cfg.Cache.Enabled || cfg.Lock.Driver == "redis" {
		rdb = config.NewRedisClient(cfg.Redis, logger)
		if rdb != nil {
			defer rdb.Close()
		}
	}

	locker, err := newLocker(cfg.Lock, rdb)
	if err != nil {
		return err
	}
	publisher := newPublisher(cfg.Events)
	defer publisher.Close()

	coordinator := booking.NewCoordinator(st.screenings, st.tickets, newIssuer(cfg.Issuer),
		booking.WithLocker(locker),
		booking.WithNotifier(newNotifier(cfg.Events, publisher, logger)),
		booking.WithLogger(logger),
	)
	engine := catalog.NewEngine(st.screenings)
	sink := gateway.NewSink(cfg.Gateway.URL, cfg.Gateway.Timeout, nil, logger)
	if !sink.Enabled() {
		logger.Info("gateway forwarding disabled")
	}

	bookingHandler := handler.NewBookingHandler(coordinator)
	catalogHandler := handler.NewCatalogHandler(engine, sink)
	topics := handler.NewTopicRegistry(bookingHandler, catalogHandler)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))

	var limit, cache echo.MiddlewareFunc = passThrough, passThrough
	if rdb != nil {
		limit = middleware.NewTokenBucket(cfg.RateLimit, rdb, logger)
		cache = middleware.NewRedisCache(cfg.Cache, rdb, logger)
	}
	router.RegisterRoutes(e)
	router.RegisterBooking(e, bookingHandler, limit)
	router.RegisterCatalog(e, catalogHandler, limit, cache)
	router.RegisterTopics(e, topics, limit)

	addr := ":" + cfg.App.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.App.Env,
			"store", cfg.Store.Driver, "issuer", cfg.Issuer.Mode, "events", cfg.Events.Driver, "lock", cfg.Lock.Driver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if err := sink.Wait(shutdownCtx); err != nil {
		logger.Warn("gateway deliveries still pending", "error", err)
	}
	return nil
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
