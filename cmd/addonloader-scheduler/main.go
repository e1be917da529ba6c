// addonloader-scheduler — публикует запросы на установку по расписаниям.
//
// Запускается в нескольких экземплярах; тики выполняет только лидер,
// удерживающий pg advisory lock.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/addonloader/internal/config"
	"github.com/shaiso/addonloader/internal/mq"
	"github.com/shaiso/addonloader/internal/repo"
	"github.com/shaiso/addonloader/internal/scheduler"
	"github.com/shaiso/addonloader/internal/telemetry"
)

const schedLockKey int64 = 424242

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting addonloader-scheduler")

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("invalid config values, using defaults", "error", err)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repo.Migrate(ctx, pool); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("database connected")

	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(scheduler.Config{
		Schedules: repo.NewScheduleRepo(pool),
		Publisher: mq.NewPublisher(mqConn, logger),
		Logger:    logger,
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		telemetry.CountHTTPRequest("scheduler")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	go leaderLoop(telemetry.WithLogger(ctx, logger), pool, sched)

	port := ":" + cfg.SchedulerPort
	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("addonloader-scheduler stopped")
}

// leaderLoop раз в секунду проверяет лидерство и, если экземпляр лидер,
// выполняет тик планировщика.
func leaderLoop(ctx context.Context, pool *pgxpool.Pool, sched *scheduler.Scheduler) {
	logger := telemetry.FromContext(ctx)

	elector := scheduler.NewElector(func(ctx context.Context) (scheduler.LockSession, error) {
		lock, err := repo.TryAdvisoryLock(ctx, pool, schedLockKey)
		if err != nil || lock == nil {
			return nil, err
		}
		return lock, nil
	}, logger)
	defer elector.Resign(context.Background())

	tk := time.NewTicker(1 * time.Second)
	defer tk.Stop()

	for {
		select {
		case <-tk.C:
			if !elector.IsLeader(ctx) {
				// не лидер — пропускаем тик
				continue
			}

			if err := sched.Tick(ctx); err != nil {
				logger.Error("scheduler tick failed", "error", err)
			}

		case <-ctx.Done():
			return
		}
	}
}
