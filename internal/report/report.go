// Package report доставляет результат установки.
//
// Каждый Reporter получает установку в финальном этапе и передаёт
// OutcomeMessage дальше: в JSON-поток, в очередь installs.outcomes
// или в журнал установок. Multi объединяет несколько получателей.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/shaiso/addonloader/internal/domain"
)

// Reporter доставляет результат одной установки.
type Reporter interface {
	Report(ctx context.Context, install *domain.Install) error
}

// Func адаптирует функцию к Reporter.
type Func func(ctx context.Context, install *domain.Install) error

// Report вызывает f.
func (f Func) Report(ctx context.Context, install *domain.Install) error {
	return f(ctx, install)
}

// Writer пишет OutcomeMessage одной строкой JSON.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriter создаёт Writer поверх w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: json.NewEncoder(w)}
}

// Report пишет результат.
func (w *Writer) Report(_ context.Context, install *domain.Install) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(install.Outcome()); err != nil {
		return fmt.Errorf("write outcome: %w", err)
	}
	return nil
}

// OutcomePublisher публикует результат (mq.Publisher).
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, outcome domain.OutcomeMessage) error
}

// Publisher отправляет результат в очередь.
type Publisher struct {
	publisher OutcomePublisher
}

// NewPublisher создаёт Publisher.
func NewPublisher(p OutcomePublisher) *Publisher {
	return &Publisher{publisher: p}
}

// Report публикует результат.
func (p *Publisher) Report(ctx context.Context, install *domain.Install) error {
	return p.publisher.PublishOutcome(ctx, install.Outcome())
}

// InstallSaver сохраняет установку (repo.InstallRepo).
type InstallSaver interface {
	Save(ctx context.Context, install *domain.Install) error
}

// Journal записывает установку в журнал.
type Journal struct {
	saver InstallSaver
}

// NewJournal создаёт Journal.
func NewJournal(s InstallSaver) *Journal {
	return &Journal{saver: s}
}

// Report сохраняет установку.
func (j *Journal) Report(ctx context.Context, install *domain.Install) error {
	return j.saver.Save(ctx, install)
}

// Multi передаёт результат каждому Reporter по очереди.
//
// Ошибка одного получателя не мешает остальным; все ошибки
// возвращаются вместе.
type Multi []Reporter

// Report вызывает все Reporter'ы.
func (m Multi) Report(ctx context.Context, install *domain.Install) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, install); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
