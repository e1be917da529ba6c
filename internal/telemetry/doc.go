// Package telemetry обеспечивает наблюдаемость сервисов addonloader.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики pipeline установки
//
// Сервисы (worker, api, scheduler) экспортируют метрики на /metrics.
package telemetry
