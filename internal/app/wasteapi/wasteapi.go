// Package wasteapi собирает REST API сервиса вывоза отходов.
package wasteapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/waste-collection/internal/cache"
	"github.com/magabrotheeeer/waste-collection/internal/config"
	"github.com/magabrotheeeer/waste-collection/internal/geocoder"
	"github.com/magabrotheeeer/waste-collection/internal/http/middlewarectx"
	"github.com/magabrotheeeer/waste-collection/internal/lib/jwt"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/markers"
	"github.com/magabrotheeeer/waste-collection/internal/metrics"
	"github.com/magabrotheeeer/waste-collection/internal/migrations"
	"github.com/magabrotheeeer/waste-collection/internal/payment"
	"github.com/magabrotheeeer/waste-collection/internal/pricing"
	"github.com/magabrotheeeer/waste-collection/internal/rabbitmq"
	accountsservice "github.com/magabrotheeeer/waste-collection/internal/services/accounts"
	authservice "github.com/magabrotheeeer/waste-collection/internal/services/auth"
	mapviewservice "github.com/magabrotheeeer/waste-collection/internal/services/mapview"
	specialservice "github.com/magabrotheeeer/waste-collection/internal/services/special"
	"github.com/magabrotheeeer/waste-collection/internal/services/stats"
	wasteservice "github.com/magabrotheeeer/waste-collection/internal/services/waste"
	"github.com/magabrotheeeer/waste-collection/internal/storage"
)

// App HTTP API вместе с потребителем capacity.updated
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *storage.Storage
	cache   *cache.Cache
	conn    *amqp.Connection
	pubCh   *amqp.Channel
	subCh   *amqp.Channel
	metrics *metrics.Metrics

	bgCtx    context.Context
	bgCancel context.CancelFunc
	enricher *markers.Enricher
}

func connectStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage.Storage, error) {
	var db *storage.Storage
	err := retry.Do(
		func() error {
			var err error
			db, err = storage.New(ctx, cfg.StorageConnectionString)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(3*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database not ready", slog.Uint64("attempt", uint64(n+1)), sl.Err(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	return db, nil
}

// New поднимает зависимости и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	prices, err := pricing.New(cfg.Pricing)
	if err != nil {
		return nil, err
	}

	db, err := connectStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.DB.Close()
		return nil, err
	}
	if err = storage.CheckDatabaseReady(ctx, db); err != nil {
		_ = db.DB.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.DB.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	a := &App{
		logger:  logger,
		db:      db,
		cache:   cacheRedis,
		metrics: metrics.New(prometheus.DefaultRegisterer),
	}
	a.bgCtx, a.bgCancel = context.WithCancel(context.Background())

	if err = a.setupBroker(ctx, cfg); err != nil {
		a.close()
		return nil, err
	}

	var enricher mapviewservice.Enricher
	if cfg.GeocoderURL != "" {
		geo := mapviewservice.MeteredGeocoder{
			Geocoder: geocoder.NewClient(cfg.GeocoderURL, cfg.GeocoderAPIKey, cfg.GeocoderTimeout),
			Metrics:  a.metrics,
		}
		a.enricher = markers.NewEnricher(a.bgCtx, geo, db, logger, cfg.GeocoderTimeout)
		a.enricher.AfterPatch = mapviewservice.DropCachedMarkers(cacheRedis, logger)
		enricher = a.enricher
	} else {
		logger.Warn("geocoder url is empty, records without coordinates stay off the map")
	}

	publisher := rabbitmq.NewPublisher(a.pubCh)
	sessions := middlewarectx.NewSessionStore(cfg.Session)
	deps := Deps{
		Auth:     authservice.New(db, cacheRedis, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), logger),
		Waste:    wasteservice.New(db, prices, cacheRedis, publisher, a.metrics, logger),
		Special:  specialservice.New(db, prices, payment.NewClient(cfg.PaymentURL, cfg.PaymentShopID, cfg.PaymentSecretKey, cfg.PaymentCurrency), cacheRedis, publisher, a.metrics, logger, loc),
		Accounts: accountsservice.New(db, cacheRedis, publisher, logger),
		MapView:  mapviewservice.New(db, cacheRedis, enricher, logger),
		Stats:    stats.New(db, cacheRedis, logger),
		Sessions: sessions,
		Metrics:  a.metrics,
	}

	if err = a.startConsumers(); err != nil {
		a.close()
		return nil, err
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, deps)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

func (a *App) setupBroker(ctx context.Context, cfg *config.Config) error {
	conn, err := rabbitmq.Connect(ctx, a.logger, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	a.conn = conn

	if a.pubCh, err = rabbitmq.SetupChannel(conn, rabbitmq.Queues()); err != nil {
		return fmt.Errorf("failed to setup publisher channel: %w", err)
	}
	if a.subCh, err = rabbitmq.SetupChannel(conn, rabbitmq.Queues()); err != nil {
		return fmt.Errorf("failed to setup consumer channel: %w", err)
	}
	return nil
}

func (a *App) startConsumers() error {
	if err := rabbitmq.ConsumeMessages(a.bgCtx, a.logger, a.subCh, rabbitmq.QueueCapacity,
		accountsservice.CapacityHandler(a.cache, a.metrics, a.logger)); err != nil {
		return fmt.Errorf("failed to consume %s: %w", rabbitmq.QueueCapacity, err)
	}
	return nil
}

func (a *App) close() {
	a.bgCancel()
	if a.enricher != nil {
		a.enricher.Wait()
	}
	for _, ch := range []*amqp.Channel{a.subCh, a.pubCh} {
		if ch == nil {
			continue
		}
		if err := ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает
// сервер и фоновые задачи.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}
