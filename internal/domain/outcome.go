package domain

import "errors"

// OutcomeMessage — единственное финальное сообщение по запросу.
type OutcomeMessage struct {
	// CorrelationID — идентификатор из AddonRequest без изменений.
	CorrelationID string `json:"correlation_id"`

	// Failed — true, если установка не удалась.
	Failed bool `json:"failed"`

	// Data — пустой объект при успехе.
	Data *struct{} `json:"data,omitempty"`

	// Error — причина ошибки с указанием этапа.
	Error *OutcomeError `json:"error,omitempty"`
}

// OutcomeError — сериализуемая ошибка этапа.
type OutcomeError struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// SucceededOutcome формирует сообщение об успехе.
func SucceededOutcome(correlationID string) OutcomeMessage {
	return OutcomeMessage{
		CorrelationID: correlationID,
		Failed:        false,
		Data:          &struct{}{},
	}
}

// FailedOutcome формирует сообщение об ошибке.
// Если err не StageError, этап берётся из stage.
func FailedOutcome(correlationID string, stage Stage, err error) OutcomeMessage {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	var se *StageError
	if errors.As(err, &se) {
		stage = se.Stage
		if se.Err != nil {
			msg = se.Err.Error()
		}
	}
	return OutcomeMessage{
		CorrelationID: correlationID,
		Failed:        true,
		Error: &OutcomeError{
			Stage:   stage,
			Message: msg,
		},
	}
}
