package pipeline

import "errors"

var (
	// ErrMissingComponent — в Config не задан обязательный компонент.
	ErrMissingComponent = errors.New("pipeline component is not configured")

	// ErrLockDestination — не удалось захватить lock каталога назначения.
	ErrLockDestination = errors.New("destination directory is locked")
)
