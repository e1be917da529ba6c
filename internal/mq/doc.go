// Package mq предоставляет транспорт запросов и результатов через RabbitMQ.
//
// Структура:
//   - connection.go — соединение с автоматическим переподключением
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация запросов и результатов
//   - consumer.go   — параллельное потребление с ack/nack
//
// Типы сообщений:
//   - install.requested — AddonRequest, потребитель: worker
//   - install.outcome   — OutcomeMessage, ровно одно на запрос
//
// Все сообщения — JSON-конверт {id, type, payload, timestamp};
// correlation_id запроса дублируется в AMQP-свойстве CorrelationId.
package mq
