// Package rabbitmq подключение к брокеру, объявление exchange/очередей,
// публикация и потребление событий сервиса.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/streadway/amqp"
)

// Connect подключается к RabbitMQ, повторяя попытки с экспоненциальной задержкой.
func Connect(ctx context.Context, log *slog.Logger, url string, attempts uint, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"
	if attempts == 0 {
		attempts = 1
	}
	var conn *amqp.Connection
	err := retry.Do(
		func() error {
			c, err := amqp.Dial(url)
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("rabbitmq connect retry", slog.Uint64("attempt", uint64(n+1)), slog.String("error", err.Error()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return conn, nil
}
