package unpack

import "errors"

// Ошибки распаковки.
var (
	// ErrCorruptArchive — файл не является корректным zip-архивом.
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrUnsafePath — запись архива указывает за пределы каталога назначения.
	ErrUnsafePath = errors.New("unsafe archive entry path")

	// ErrExtract — ошибка файловой системы при распаковке.
	ErrExtract = errors.New("extract failed")

	// ErrCleanup — архив распакован, но удалить его не удалось.
	ErrCleanup = errors.New("archive cleanup failed")
)
