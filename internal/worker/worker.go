package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaiso/addonloader/internal/domain"
	"github.com/shaiso/addonloader/internal/mq"
	"github.com/shaiso/addonloader/internal/telemetry"
)

const defaultPrefetch = 5

// Runner выполняет установку (pipeline.Pipeline).
type Runner interface {
	Run(ctx context.Context, req domain.AddonRequest) (*domain.Install, error)
}

// Worker забирает запросы из installs.requested и выполняет их.
//
// Worker не хранит состояние: несколько экземпляров могут читать одну
// очередь. Каждое сообщение подтверждается после того, как pipeline
// сообщил результат, поэтому запрос не выполняется повторно.
type Worker struct {
	runner   Runner
	conn     *mq.Connection
	prefetch int
	logger   *slog.Logger

	consumer   *mq.Consumer
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	// Runner — pipeline установки.
	Runner Runner

	// Conn — соединение с RabbitMQ.
	Conn *mq.Connection

	// Prefetch — число параллельных установок (default: 5).
	Prefetch int

	// Logger
	Logger *slog.Logger
}

// New создаёт Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		runner:   cfg.Runner,
		conn:     cfg.Conn,
		prefetch: prefetch,
		logger:   logger,
	}
}

// Start запускает потребление очереди в фоне.
func (w *Worker) Start(ctx context.Context) error {
	if w.conn == nil {
		return errors.New("worker: amqp connection is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    mq.QueueInstallsRequested,
		Handler:  w.handleDelivery,
		Prefetch: w.prefetch,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("install consumer stopped", "error", err)
		}
	}()

	w.logger.Info("worker started", "prefetch", w.prefetch)
	return nil
}

// Stop останавливает потребление и ждёт текущие установки.
//
// Отмена контекста прерывает незавершённые этапы; их результат
// (FAILED) всё равно будет отправлен.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")
	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

func (w *Worker) handleDelivery(ctx context.Context, d *mq.Delivery) error {
	return w.Handle(ctx, &d.Message, d.CorrelationID())
}

// Handle выполняет одно сообщение из очереди.
//
// Возвращает ошибку только для сообщений, которые нельзя выполнить;
// consumer отправляет их в DLQ. Результат установки (в том числе
// неудачной) доставляет pipeline, и сообщение подтверждается.
func (w *Worker) Handle(ctx context.Context, msg *mq.Message, correlationID string) error {
	if msg.Type != "" && msg.Type != mq.MessageTypeInstallRequested {
		return fmt.Errorf("%w: %s", ErrUnexpectedMessage, msg.Type)
	}

	req, err := mq.ParsePayload[domain.AddonRequest](msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if req.CorrelationID == "" {
		req.CorrelationID = correlationID
	}
	if req.CorrelationID == "" {
		// без correlation id результат некому сопоставить
		return fmt.Errorf("%w: correlation_id is required", ErrMalformedRequest)
	}

	logger := telemetry.WithCorrelationID(w.logger, req.CorrelationID)
	logger.Debug("install request received", "message_id", msg.ID)

	install, err := w.runner.Run(ctx, req)
	if err != nil {
		// установка завершена, но результат не доставлен; повтор выполнил бы её заново
		logger.Error("install outcome was not delivered", "error", err)
	}
	if install != nil {
		logger.Debug("install request handled", "stage", install.Stage)
	}
	return nil
}
