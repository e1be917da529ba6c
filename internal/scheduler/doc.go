// Package scheduler периодически переустанавливает аддоны по расписанию.
//
// Расписание хранит шаблон AddonRequest и либо cron-выражение, либо
// интервал в секундах. Когда next_due_at наступает, Scheduler публикует
// копию шаблона с новым correlation id в очередь installs.requested,
// откуда её забирает worker. Сам Scheduler установку не выполняет.
//
// Структура:
//   - scheduler.go — Tick и обработка одного расписания
//   - cron.go      — вычисление next_due_at и валидация
//
// Leader election делается в cmd/addonloader-scheduler через
// pg_try_advisory_lock: Tick вызывает только лидер.
package scheduler
