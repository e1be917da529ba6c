package domain

import (
	"errors"
	"fmt"
)

// Категории ошибок pipeline. Каждая соответствует своему этапу.
var (
	// ErrResolution — страница недоступна или не найден подходящий релиз.
	ErrResolution = errors.New("resolution failed")

	// ErrTransfer — сетевая ошибка при скачивании архива.
	ErrTransfer = errors.New("transfer failed")

	// ErrUnpack — архив повреждён или ошибка файловой системы при распаковке/очистке.
	ErrUnpack = errors.New("unpack failed")
)

// Прочие ошибки домена.
var (
	// ErrInvalidRequest — запрос не содержит обязательных полей.
	ErrInvalidRequest = errors.New("invalid addon request")

	// ErrInvalidTransition — недопустимый переход между этапами.
	ErrInvalidTransition = errors.New("invalid stage transition")
)

// StageError — ошибка, помеченная этапом, на котором она произошла.
//
// errors.Is(err, ErrTransfer) истинно для ошибки этапа FETCHING и т.д.,
// а Unwrap отдаёт исходную причину.
type StageError struct {
	Stage Stage // этап, на котором произошла ошибка
	Err   error // причина
}

// NewStageError оборачивает err в StageError.
func NewStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}

// Error реализует интерфейс error.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap возвращает исходную причину.
func (e *StageError) Unwrap() error {
	return e.Err
}

// Is сопоставляет этап с категорией ошибки.
func (e *StageError) Is(target error) bool {
	switch target {
	case ErrResolution:
		return e.Stage == StageResolving
	case ErrTransfer:
		return e.Stage == StageFetching
	case ErrUnpack:
		return e.Stage == StageUnpacking
	}
	return false
}
