package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

const (
	// Exchange общий direct exchange для событий сервиса
	Exchange = "waste.events"

	RoutingCapacity = "capacity.updated"
	RoutingStatus   = "collection.status"

	QueueCapacity = "waste.capacity"
	QueueStatus   = "waste.status"
)

// QueueConfig очередь и ключ маршрутизации, с которым она привязана к Exchange
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Queues очереди, которые объявляет API
func Queues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueCapacity, RoutingKey: RoutingCapacity},
		{QueueName: QueueStatus, RoutingKey: RoutingStatus},
	}
}

// SetupChannel открывает канал, объявляет Exchange и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: set qos: %w", op, err)
	}
	if err := ch.ExchangeDeclare(Exchange, "direct", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("%s: declare queue %s: %w", op, q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("%s: bind queue %s to %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}
	return ch, nil
}
