package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматической переустановки аддона.
//
// Schedule позволяет обновлять аддон:
// - По cron-выражению: "0 9 * * *" (каждый день в 9:00)
// - По интервалу: каждые N секунд
//
// Scheduler проверяет next_due_at и публикует новый AddonRequest, когда время подошло.
type Schedule struct {
	// ID — уникальный идентификатор schedule.
	ID uuid.UUID `json:"id"`

	// Name — имя расписания для удобства.
	Name string `json:"name,omitempty"`

	// Request — шаблон запроса. CorrelationID генерируется на каждый запуск.
	Request AddonRequest `json:"request"`

	// CronExpr — cron-выражение.
	// Формат: "минуты часы дни месяцы дни_недели"
	// Если задан CronExpr, IntervalSec игнорируется.
	CronExpr string `json:"cron_expr,omitempty"`

	// IntervalSec — интервал в секундах между запусками.
	// Используется если CronExpr не задан.
	IntervalSec int `json:"interval_sec,omitempty"`

	// Timezone — часовой пояс для вычисления времени.
	// По умолчанию: "UTC".
	Timezone string `json:"timezone"`

	// Enabled — флаг активности расписания.
	Enabled bool `json:"enabled"`

	// NextDueAt — время следующего запуска.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего запуска.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastCorrelationID — CorrelationID последнего опубликованного запроса.
	LastCorrelationID string `json:"last_correlation_id,omitempty"`

	// CreatedAt — время создания schedule.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего обновления.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsCron возвращает true, если расписание использует cron-выражение.
func (s *Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval возвращает true, если расписание использует интервал.
func (s *Schedule) IsInterval() bool {
	return s.CronExpr == "" && s.IntervalSec > 0
}

// IsDue проверяет, пора ли запускать.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if s.NextDueAt == nil {
		return false
	}
	return now.After(*s.NextDueAt) || now.Equal(*s.NextDueAt)
}

// NewRequest возвращает копию шаблона с новым CorrelationID.
func (s *Schedule) NewRequest() AddonRequest {
	req := s.Request
	req.CorrelationID = uuid.NewString()
	return req
}

// RecordRun записывает информацию о запуске.
func (s *Schedule) RecordRun(correlationID string, nextDue time.Time) {
	now := time.Now()
	s.LastRunAt = &now
	s.LastCorrelationID = correlationID
	s.NextDueAt = &nextDue
	s.UpdatedAt = now
}
