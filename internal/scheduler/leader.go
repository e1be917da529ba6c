package scheduler

import (
	"context"
	"log/slog"
)

// LockSession — удерживаемый lock лидера (repo.AdvisoryLock).
type LockSession interface {
	Ping(ctx context.Context) error
	Release(ctx context.Context)
}

// AcquireFunc пытается взять lock лидера.
// (nil, nil) означает, что лидер уже есть.
type AcquireFunc func(ctx context.Context) (LockSession, error)

// Elector отслеживает лидерство экземпляра планировщика.
type Elector struct {
	acquire AcquireFunc
	session LockSession
	logger  *slog.Logger
}

// NewElector создаёт Elector.
func NewElector(acquire AcquireFunc, logger *slog.Logger) *Elector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Elector{acquire: acquire, logger: logger}
}

// IsLeader вызывается на каждом тике. Удерживаемая сессия проверяется
// заново: после обрыва соединения lock уже может держать другой экземпляр.
func (e *Elector) IsLeader(ctx context.Context) bool {
	if e.session != nil {
		err := e.session.Ping(ctx)
		if err == nil {
			return true
		}
		e.logger.Warn("leader session lost", "error", err)
		e.session.Release(context.WithoutCancel(ctx))
		e.session = nil
		return false
	}

	session, err := e.acquire(ctx)
	if err != nil {
		e.logger.Warn("leader lock failed", "error", err)
		return false
	}
	if session == nil {
		return false
	}

	e.session = session
	e.logger.Info("became leader")
	return true
}

// Resign отпускает лидерство.
func (e *Elector) Resign(ctx context.Context) {
	if e.session != nil {
		e.session.Release(ctx)
		e.session = nil
	}
}
