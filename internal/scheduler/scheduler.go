package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/addonloader/internal/domain"
	"github.com/shaiso/addonloader/internal/telemetry"
)

const defaultBatchSize = 100

// ScheduleStore — хранилище расписаний (repo.ScheduleRepo).
type ScheduleStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Schedule, error)
	Update(ctx context.Context, schedule *domain.Schedule) error
}

// RequestPublisher ставит запрос на установку в очередь (mq.Publisher).
type RequestPublisher interface {
	PublishInstallRequest(ctx context.Context, req domain.AddonRequest) error
}

// Scheduler публикует запросы на переустановку по расписаниям.
type Scheduler struct {
	schedules ScheduleStore
	publisher RequestPublisher
	logger    *slog.Logger
	batchSize int
	now       func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedules ScheduleStore
	Publisher RequestPublisher
	Logger    *slog.Logger

	// BatchSize — сколько расписаний обрабатывать за тик (default: 100).
	BatchSize int
}

// New создаёт Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		schedules: cfg.Schedules,
		publisher: cfg.Publisher,
		logger:    logger,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Tick обрабатывает все расписания, время которых наступило.
//
// Для каждого публикуется новый AddonRequest со свежим correlation id,
// затем сдвигается next_due_at. Ошибка одного расписания не мешает
// остальным.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.now()

	due, err := s.schedules.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	var published int
	for i := range due {
		sched := &due[i]
		ok, err := s.process(ctx, sched, now)
		if err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", sched.ID,
				"schedule_name", sched.Name,
				"error", err,
			)
			continue
		}
		if ok {
			published++
		}
	}

	s.logger.Info("scheduler tick completed", "due", len(due), "published", published)
	return nil
}

// process публикует запрос для одного расписания.
// Возвращает true, если запрос опубликован.
func (s *Scheduler) process(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	logger := telemetry.WithScheduleID(s.logger, sched.ID.String())

	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		// без следующего времени расписание сработало бы на каждом тике
		logger.Warn("disabling schedule", "error", err)
		sched.Enabled = false
		sched.UpdatedAt = now
		if err := s.schedules.Update(ctx, sched); err != nil {
			return false, fmt.Errorf("disable schedule: %w", err)
		}
		return false, nil
	}

	req := sched.NewRequest()
	// если публикация не удалась, next_due_at не меняется и расписание повторится на следующем тике
	if err := s.publisher.PublishInstallRequest(ctx, req); err != nil {
		return false, fmt.Errorf("publish install request: %w", err)
	}

	sched.RecordRun(req.CorrelationID, nextDue)
	if err := s.schedules.Update(ctx, sched); err != nil {
		return true, fmt.Errorf("update schedule: %w", err)
	}

	telemetry.WithCorrelationID(logger, req.CorrelationID).Info("install requested by schedule",
		"addon", req.DisplayName(),
		"next_due_at", nextDue,
	)
	return true, nil
}
