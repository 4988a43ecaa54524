package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/waste-collection/internal/lib/sl"
)

// ErrMalformed возвращается обработчиком для сообщений, которые не имеет
// смысла доставлять повторно.
var ErrMalformed = errors.New("malformed message")

// Handler обрабатывает тело сообщения
type Handler func(ctx context.Context, body []byte) error

// ConsumeMessages запускает потребителя очереди queueName. Обработка идёт
// не более чем в 10 горутинах; при ошибке сообщение возвращается в очередь,
// кроме ErrMalformed.
func ConsumeMessages(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler Handler) error {
	const op = "rabbitmq.ConsumeMessages"
	delivery, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	sem := make(chan struct{}, 10)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					if err := handler(ctx, d.Body); err != nil {
						requeue := !errors.Is(err, ErrMalformed)
						log.Warn("handler failed", sl.Err(err), slog.Bool("requeue", requeue))
						if nackErr := d.Nack(false, requeue); nackErr != nil {
							log.Error("failed to nack message", sl.Err(nackErr))
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Error("failed to ack message", sl.Err(ackErr))
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
