// Package simulator приложение, периодически обновляющее заполненность
// точек сбора.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/waste-collection/internal/cache"
	"github.com/magabrotheeeer/waste-collection/internal/config"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/rabbitmq"
	accountsservice "github.com/magabrotheeeer/waste-collection/internal/services/accounts"
	simulatorservice "github.com/magabrotheeeer/waste-collection/internal/services/simulator"
	"github.com/magabrotheeeer/waste-collection/internal/storage"
)

// App представляет приложение симулятора.
type App struct {
	simulator *simulatorservice.Service
	db        *storage.Storage
	cache     *cache.Cache
	conn      *amqp.Connection
	ch        *amqp.Channel
	logger    *slog.Logger
}

func waitForDB(ctx context.Context, cfg *config.Config) (*storage.Storage, error) {
	var db *storage.Storage
	err := retry.Do(
		func() error {
			var err error
			if db, err = storage.New(ctx, cfg.StorageConnectionString); err != nil {
				return err
			}
			if err = storage.CheckDatabaseReady(ctx, db); err != nil {
				_ = db.DB.Close()
				return err
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(10),
		retry.Delay(3*time.Second),
		retry.DelayType(retry.FixedDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("database not ready after retries: %w", err)
	}
	return db, nil
}

// New создает новый экземпляр приложения симулятора.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(ctx, logger, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.Queues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := waitForDB(ctx, cfg)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.DB.Close()
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	accounts := accountsservice.New(db, cacheRedis, rabbitmq.NewPublisher(ch), logger)

	return &App{
		simulator: simulatorservice.New(accounts, cfg.SimulatorInterval, logger),
		db:        db,
		cache:     cacheRedis,
		conn:      conn,
		ch:        ch,
		logger:    logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает симулятор и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.simulator.Run(ctx)

	a.logger.Info("shutting down simulator")
	closeResources(a.ch, a.conn, a.logger)
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
