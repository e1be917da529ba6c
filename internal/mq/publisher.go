package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/addonloader/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeInstallRequested MessageType = "install.requested"
	MessageTypeInstallOutcome   MessageType = "install.outcome"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — конверт сообщения.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка (AddonRequest или OutcomeMessage).
	Payload json.RawMessage `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage упаковывает payload в конверт.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   data,
		Timestamp: time.Now(),
	}, nil
}

// Publish публикует сообщение в exchange с routing key.
// correlationID попадает в свойство CorrelationId сообщения.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, correlationID string, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),
			string(routingKey),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:   "application/json",
				DeliveryMode:  amqp.Persistent,
				MessageId:     msg.ID,
				CorrelationId: correlationID,
				Timestamp:     msg.Timestamp,
				Type:          string(msg.Type),
				Body:          body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
			"correlation_id", correlationID,
		)
		return nil
	})
}

// PublishInstallRequest ставит запрос на установку в очередь.
// Потребитель: worker.
func (p *Publisher) PublishInstallRequest(ctx context.Context, req domain.AddonRequest) error {
	msg, err := NewMessage(MessageTypeInstallRequested, req)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeInstalls, RoutingKeyRequested, req.CorrelationID, msg)
}

// PublishOutcome публикует финальный результат установки.
func (p *Publisher) PublishOutcome(ctx context.Context, outcome domain.OutcomeMessage) error {
	msg, err := NewMessage(MessageTypeInstallOutcome, outcome)
	if err != nil {
		return err
	}
	return p.Publish(ctx, ExchangeInstalls, RoutingKeyOutcome, outcome.CorrelationID, msg)
}
