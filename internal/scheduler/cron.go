package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/addonloader/internal/domain"
)

// cronParser — стандартный формат из пяти полей.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// minInterval — минимальный интервал между переустановками.
const minInterval = 60

// CalculateNextDue вычисляет следующее время запуска после from.
// Cron-выражение вычисляется в часовом поясе расписания, результат — в UTC.
func CalculateNextDue(sched *domain.Schedule, from time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		loc = time.UTC
	}
	from = from.In(loc)

	switch {
	case sched.IsCron():
		parsed, err := cronParser.Parse(sched.CronExpr)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidCron, sched.CronExpr, err)
		}
		return parsed.Next(from).UTC(), nil

	case sched.IsInterval():
		return from.Add(time.Duration(sched.IntervalSec) * time.Second).UTC(), nil
	}

	return time.Time{}, ErrNoTrigger
}

// Validate проверяет расписание перед сохранением.
func Validate(sched *domain.Schedule) error {
	if sched.CronExpr == "" && sched.IntervalSec <= 0 {
		return ErrNoTrigger
	}
	if sched.IsCron() {
		if _, err := cronParser.Parse(sched.CronExpr); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidCron, sched.CronExpr, err)
		}
	} else if sched.IntervalSec < minInterval {
		return fmt.Errorf("%w: interval_sec must be at least %d", ErrInvalidInterval, minInterval)
	}
	if sched.Timezone != "" {
		if _, err := time.LoadLocation(sched.Timezone); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimezone, sched.Timezone)
		}
	}
	if err := sched.Request.Validate(); err != nil {
		return err
	}
	return nil
}

// CalculateInitialNextDue вычисляет первое время запуска нового расписания.
func CalculateInitialNextDue(sched *domain.Schedule) (time.Time, error) {
	return CalculateNextDue(sched, time.Now())
}
