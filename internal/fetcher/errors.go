package fetcher

import "errors"

// Ошибки скачивания.
var (
	// ErrTransfer — сетевая ошибка или ответ не 2xx.
	ErrTransfer = errors.New("archive transfer failed")

	// ErrWrite — ошибка записи в scratch-каталог.
	ErrWrite = errors.New("archive write failed")
)
