package scheduler

import "errors"

// Ошибки расписаний.
var (
	// ErrNoTrigger — не задан ни cron_expr, ни interval_sec.
	ErrNoTrigger = errors.New("schedule has neither cron_expr nor interval_sec")

	// ErrInvalidCron — cron-выражение не разбирается.
	ErrInvalidCron = errors.New("invalid cron expression")

	// ErrInvalidInterval — интервал слишком мал.
	ErrInvalidInterval = errors.New("invalid interval")

	// ErrInvalidTimezone — неизвестный часовой пояс.
	ErrInvalidTimezone = errors.New("invalid timezone")
)
