package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-ticket-booking/internal/booking"
	"github.com/iliyamo/cinema-ticket-booking/internal/catalog"
	"github.com/iliyamo/cinema-ticket-booking/internal/config"
	"github.com/iliyamo/cinema-ticket-booking/internal/database"
	"github.com/iliyamo/cinema-ticket-booking/internal/issuer"
	"github.com/iliyamo/cinema-ticket-booking/internal/lock"
	"github.com/iliyamo/cinema-ticket-booking/internal/queue"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository/boltrepo"
	"github.com/iliyamo/cinema-ticket-booking/internal/repository/postgres"
)

// screeningStore is what both the coordinator and the catalog read.
type screeningStore interface {
	booking.ScreeningStore
	catalog.Store
}

type stores struct {
	screenings screeningStore
	tickets    booking.TicketStore
	close      func()
}

func openStores(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*stores, error) {
	switch cfg.Driver {
	case "mysql":
		db, err := database.OpenMySQL(cfg)
		if err != nil {
			return nil, err
		}
		return &stores{
			screenings: repository.NewScreeningRepo(db),
			tickets:    repository.NewTicketRepo(db),
			close:      func() { _ = db.Close() },
		}, nil
	case "postgres":
		pool, err := database.OpenPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &stores{
			screenings: postgres.NewScreeningRepo(pool),
			tickets:    postgres.NewTicketRepo(pool),
			close:      pool.Close,
		}, nil
	case "bolt":
		st, err := boltrepo.Open(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		if cfg.SeedFile != "" {
			seeds, err := boltrepo.LoadSeedFile(cfg.SeedFile)
			if err != nil {
				st.Close()
				return nil, err
			}
			n, err := st.SeedScreenings(ctx, seeds)
			if err != nil {
				st.Close()
				return nil, err
			}
			logger.Info("seeded screenings", "file", cfg.SeedFile, "added", n)
		}
		return &stores{screenings: st, tickets: st, close: func() { _ = st.Close() }}, nil
	}
	return nil, errors.Newf("unknown store driver %q", cfg.Driver)
}

func newIssuer(cfg config.IssuerConfig) booking.Issuer {
	if cfg.Mode == "local" {
		return issuer.NewSequence(cfg.Start)
	}
	return issuer.NewHTTPClient(cfg.URL, cfg.Timeout, &http.Client{})
}

func newLocker(cfg config.LockConfig, rdb *redis.Client) (lock.Locker, error) {
	if cfg.Driver != "redis" {
		return lock.NewKeyedMutex(), nil
	}
	if rdb == nil {
		return nil, errors.New("LOCK_DRIVER=redis but redis is unreachable")
	}
	return lock.NewRedisLocker(rdb, cfg.TTL), nil
}

func newPublisher(cfg config.EventsConfig) queue.Publisher {
	switch cfg.Driver {
	case "amqp":
		return queue.NewAMQPPublisher(cfg.RabbitURL)
	case "kafka":
		return queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	return queue.NopPublisher{}
}

func newNotifier(cfg config.EventsConfig, pub queue.Publisher, logger *slog.Logger) booking.Notifier {
	return queue.NewNotifier(pub, cfg.Driver, logger)
}
