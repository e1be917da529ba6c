package worker

import "errors"

// Ошибки воркера.
var (
	// ErrMalformedRequest — сообщение не содержит корректный AddonRequest.
	// Такие сообщения уходят в DLQ.
	ErrMalformedRequest = errors.New("malformed install request")

	// ErrUnexpectedMessage — в очередь запросов пришло сообщение другого типа.
	ErrUnexpectedMessage = errors.New("unexpected message type")
)
