package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

// Exchanges.
const (
	ExchangeInstalls Exchange = "addonloader.installs"
	ExchangeDLQ      Exchange = "addonloader.dlq"
)

// Queues.
const (
	// QueueInstallsRequested — входящие запросы на установку.
	QueueInstallsRequested Queue = "installs.requested"

	// QueueInstallsOutcomes — результаты установок для вызывающей стороны.
	QueueInstallsOutcomes Queue = "installs.outcomes"

	// QueueDLQInstalls — сообщения, которые не удалось разобрать.
	QueueDLQInstalls Queue = "dlq.installs"
)

// Routing keys.
const (
	RoutingKeyRequested   RoutingKey = "requested"
	RoutingKeyOutcome     RoutingKey = "outcome"
	RoutingKeyDLQInstalls RoutingKey = "installs"
)

// SetupTopology объявляет exchanges, очереди и привязки.
// Операция идемпотентна, её вызывает каждый сервис при старте.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

func declareExchanges(ch *amqp.Channel) error {
	for _, name := range []Exchange{ExchangeInstalls, ExchangeDLQ} {
		err := ch.ExchangeDeclare(
			string(name), // name
			"direct",     // type
			true,         // durable
			false,        // auto-deleted
			false,        // internal
			false,        // no-wait
			nil,          // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", name, err)
		}
	}
	return nil
}

func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// nack без requeue уводит запрос в DLQ
		{QueueInstallsRequested, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQInstalls),
		}},
		{QueueInstallsOutcomes, nil},
		{QueueDLQInstalls, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}
	return nil
}

func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueInstallsRequested, RoutingKeyRequested, ExchangeInstalls},
		{QueueInstallsOutcomes, RoutingKeyOutcome, ExchangeInstalls},
		{QueueDLQInstalls, RoutingKeyDLQInstalls, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  addonloader RabbitMQ topology:

    addonloader.installs (direct)
    ├── installs.requested [routing: requested]
    │       Consumer: addonloader-worker
    │       DLQ: dlq.installs
    └── installs.outcomes [routing: outcome]
            Consumer: caller (UI, scripts)

    addonloader.dlq (direct)
    └── dlq.installs [routing: installs]
            Manual processing
  `
}
