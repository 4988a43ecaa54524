// Package notifier приложение, разбирающее очередь collection.status.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/waste-collection/internal/config"
	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
	"github.com/magabrotheeeer/waste-collection/internal/lib/smtp"
	"github.com/magabrotheeeer/waste-collection/internal/rabbitmq"
	"github.com/magabrotheeeer/waste-collection/internal/services/notify"
	"github.com/magabrotheeeer/waste-collection/internal/storage"
)

// App потребитель уведомлений
type App struct {
	db     *storage.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
	notify *notify.Service
	logger *slog.Logger
}

// New подключается к БД и брокеру. Без smtp.host письма не отправляются,
// события только журналируются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	conn, err := rabbitmq.Connect(ctx, logger, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.DB.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.Queues())
	if err != nil {
		_ = conn.Close()
		_ = db.DB.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	var mailer notify.Mailer
	if cfg.SMTPHost != "" {
		mailer = smtp.NewTransport(cfg.SMTP, logger)
	} else {
		logger.Warn("smtp host is empty, notifications are logged only")
	}

	return &App{
		db:     db,
		conn:   conn,
		ch:     ch,
		notify: notify.New(db, mailer, logger),
		logger: logger,
	}, nil
}

// Run потребляет очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if err := rabbitmq.ConsumeMessages(ctx, a.logger, a.ch, rabbitmq.QueueStatus, a.notify.HandleStatus); err != nil {
		a.logger.Error("failed to start status consumer", sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.DB.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
