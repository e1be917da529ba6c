package cli

import "errors"

// ErrInstallFailed — локальная установка завершилась с ошибкой.
// Результат уже выведен в stdout, команда лишь задаёт код выхода.
var ErrInstallFailed = errors.New("install failed")
