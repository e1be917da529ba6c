package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Install — состояние одной установки аддона.
//
// Install создаётся на каждый AddonRequest и живёт только во время
// выполнения pipeline. Между запросами состояние не разделяется.
type Install struct {
	// ID — уникальный идентификатор установки.
	ID uuid.UUID `json:"id"`

	// Request — исходный запрос.
	Request AddonRequest `json:"request"`

	// Stage — текущий этап.
	Stage Stage `json:"stage"`

	// FailedStage — этап, на котором произошла ошибка (только при FAILED).
	FailedStage Stage `json:"failed_stage,omitempty"`

	// Download — результат резолвинга.
	Download *ResolvedDownload `json:"download,omitempty"`

	// Archive — скачанный архив.
	Archive *LocalArchive `json:"archive,omitempty"`

	// Error — текст ошибки при FAILED.
	Error string `json:"error,omitempty"`

	// StartedAt — время перехода в RESOLVING.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время перехода в финальный этап.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	err error
}

// NewInstall создаёт Install в этапе IDLE.
func NewInstall(req AddonRequest) *Install {
	return &Install{
		ID:        uuid.New(),
		Request:   req,
		Stage:     StageIdle,
		CreatedAt: time.Now(),
	}
}

// Begin переводит установку в RESOLVING.
func (i *Install) Begin() error {
	if err := i.advance(StageResolving); err != nil {
		return err
	}
	now := time.Now()
	i.StartedAt = &now
	return nil
}

// MarkFetching фиксирует результат резолвинга и переводит в FETCHING.
func (i *Install) MarkFetching(download ResolvedDownload) error {
	if err := i.advance(StageFetching); err != nil {
		return err
	}
	i.Download = &download
	return nil
}

// MarkUnpacking фиксирует скачанный архив и переводит в UNPACKING.
func (i *Install) MarkUnpacking(archive LocalArchive) error {
	if err := i.advance(StageUnpacking); err != nil {
		return err
	}
	i.Archive = &archive
	return nil
}

// MarkSucceeded переводит установку в SUCCEEDED.
func (i *Install) MarkSucceeded() error {
	if err := i.advance(StageSucceeded); err != nil {
		return err
	}
	i.finish()
	return nil
}

// MarkFailed переводит установку в FAILED.
//
// Этап ошибки берётся из StageError, иначе — текущий этап.
// err сохраняется в виде StageError.
func (i *Install) MarkFailed(err error) error {
	if !i.Stage.CanTransitionTo(StageFailed) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, i.Stage, StageFailed)
	}

	var se *StageError
	if !errors.As(err, &se) {
		se = NewStageError(i.Stage, err)
	}

	i.FailedStage = se.Stage
	i.Stage = StageFailed
	i.err = se
	if se.Err != nil {
		i.Error = se.Err.Error()
	}
	i.finish()
	return nil
}

// Err возвращает ошибку установки (StageError) или nil.
func (i *Install) Err() error {
	return i.err
}

// Outcome формирует финальное сообщение для Result Reporter.
func (i *Install) Outcome() OutcomeMessage {
	if i.Stage == StageFailed {
		err := i.err
		if err == nil && i.Error != "" {
			// установка восстановлена из журнала, исходной ошибки нет
			err = errors.New(i.Error)
		}
		return FailedOutcome(i.Request.CorrelationID, i.FailedStage, err)
	}
	return SucceededOutcome(i.Request.CorrelationID)
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если установка ещё не завершена.
func (i *Install) Duration() time.Duration {
	if i.StartedAt == nil || i.FinishedAt == nil {
		return 0
	}
	return i.FinishedAt.Sub(*i.StartedAt)
}

// IsFinished возвращает true, если установка в финальном этапе.
func (i *Install) IsFinished() bool {
	return i.Stage.IsTerminal()
}

func (i *Install) advance(next Stage) error {
	if !i.Stage.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, i.Stage, next)
	}
	i.Stage = next
	return nil
}

func (i *Install) finish() {
	now := time.Now()
	i.FinishedAt = &now
}
