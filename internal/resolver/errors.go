package resolver

import "errors"

// Ошибки резолвинга.
var (
	// ErrListingUnreachable — страница со списком файлов недоступна.
	ErrListingUnreachable = errors.New("listing page unreachable")

	// ErrNoQualifyingRelease — нет строки с подходящим типом и версией.
	ErrNoQualifyingRelease = errors.New("no qualifying release found")

	// ErrMalformedListing — страница не разобрана или у релиза нет ссылки.
	ErrMalformedListing = errors.New("malformed listing page")
)
