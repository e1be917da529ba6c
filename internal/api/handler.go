package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/addonloader/internal/domain"
	"github.com/shaiso/addonloader/internal/repo"
)

// InstallEnqueuer ставит запрос на установку в очередь (mq.Publisher).
type InstallEnqueuer interface {
	PublishInstallRequest(ctx context.Context, req domain.AddonRequest) error
}

// InstallStore читает журнал установок (repo.InstallRepo).
type InstallStore interface {
	GetByCorrelationID(ctx context.Context, correlationID string) (*domain.Install, error)
	List(ctx context.Context, filter repo.InstallFilter) ([]domain.Install, error)
}

// ScheduleStore — хранилище расписаний (repo.ScheduleRepo).
type ScheduleStore interface {
	Create(ctx context.Context, schedule *domain.Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error)
	List(ctx context.Context, filter repo.ScheduleFilter) ([]domain.Schedule, error)
	Update(ctx context.Context, schedule *domain.Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Handler — обработчик API с зависимостями.
type Handler struct {
	enqueuer  InstallEnqueuer
	installs  InstallStore
	schedules ScheduleStore
	logger    *slog.Logger
}

// Config — конфигурация Handler.
type Config struct {
	Enqueuer  InstallEnqueuer
	Installs  InstallStore
	Schedules ScheduleStore
	Logger    *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		enqueuer:  cfg.Enqueuer,
		installs:  cfg.Installs,
		schedules: cfg.Schedules,
		logger:    logger,
	}
}
