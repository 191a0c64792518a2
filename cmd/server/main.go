package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/venue-booking/internal/config"
	"github.com/iliyamo/venue-booking/internal/database"
	"github.com/iliyamo/venue-booking/internal/handler"
	"github.com/iliyamo/venue-booking/internal/logger"
	"github.com/iliyamo/venue-booking/internal/queue"
	"github.com/iliyamo/venue-booking/internal/repository"
	"github.com/iliyamo/venue-booking/internal/repository/memory"
	"github.com/iliyamo/venue-booking/internal/router"
	"github.com/iliyamo/venue-booking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The logger depends on APP_ENV, which may be what failed.
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	store, ping, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// Events are forwarded by one background goroutine; the services only
	// ever enqueue.
	var events queue.Sender = queue.Nop{}
	bg, cancelBG := context.WithCancel(context.Background())
	defer cancelBG()
	done := make(chan struct{})
	if cfg.EventsEnabled {
		async := queue.NewAsync(queue.NewPublisher(cfg.AMQPURL, log), cfg.EventsBuffer, log)
		events = async
		go func() {
			defer close(done)
			async.Run(bg)
		}()
	} else {
		close(done)
	}
	if cfg.ConsumerEnabled {
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.EventsLogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("event consumer exited", zap.Error(err))
			}
		}()
	}

	opts := []service.Option{service.WithEvents(events), service.WithLogger(log)}
	reservations := service.NewReservationManager(store, cfg.StrictTableStatus, opts...)
	orders := service.NewOrderWorkflow(store, reservations, opts...)
	payments := service.NewPaymentLedger(store, opts...)
	tables := service.NewTableAdmin(store, opts...)

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	e := router.New(router.Handlers{
		Health:       &handler.HealthHandler{Ping: ping},
		Reservations: handler.NewReservationHandler(reservations),
		Orders:       handler.NewOrderHandler(orders),
		Payments:     handler.NewPaymentHandler(payments),
		Tables:       handler.NewTableHandler(tables),
		Products:     &handler.ProductHandler{Products: store.Products()},
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Log:       log,
	})

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdown); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	// Flush pending events after the last request has finished.
	cancelBG()
	<-done
	log.Info("server stopped")
	return nil
}

// openStore returns the configured store, a readiness check and a cleanup
// func.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (repository.Store, func(context.Context) error, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		s := memory.New()
		seedDemo(s)
		log.Info("using in-memory store with demo data")
		logDemoTokens(cfg.JWTSecret, log)
		return s, nil, func() {}, nil
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.DBMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		log.Info("schema applied")
	}
	return repository.NewSQLStore(db), db.PingContext, func() { _ = db.Close() }, nil
}
