// Package api содержит HTTP API addonloader.
//
// Структура:
//   - handler.go          — Handler и интерфейсы зависимостей
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — logging, recovery
//   - response.go         — JSON-ответы и обработка ошибок
//   - dto.go              — request/response структуры
//   - install_handler.go  — /installs: постановка в очередь и журнал
//   - schedule_handler.go — /schedules: расписания переустановки
//
// POST /installs только ставит запрос в очередь и сразу отвечает 202
// с correlation id; результат появляется в очереди installs.outcomes
// и в журнале (GET /installs/{correlation_id}).
package api
