// addonloader-worker — выполняет установки из очереди.
//
// Worker:
//   - Получает AddonRequest из installs.requested
//   - Выполняет pipeline: resolve → fetch → unpack
//   - Публикует OutcomeMessage в installs.outcomes и пишет журнал
//
// Workers масштабируются горизонтально; установки в один каталог
// сериализуются file lock'ом в общем SCRATCH_DIR.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/addonloader/internal/config"
	"github.com/shaiso/addonloader/internal/fetcher"
	"github.com/shaiso/addonloader/internal/mq"
	"github.com/shaiso/addonloader/internal/pipeline"
	"github.com/shaiso/addonloader/internal/report"
	"github.com/shaiso/addonloader/internal/repo"
	"github.com/shaiso/addonloader/internal/resolver"
	"github.com/shaiso/addonloader/internal/telemetry"
	"github.com/shaiso/addonloader/internal/unpack"
	"github.com/shaiso/addonloader/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting addonloader-worker")

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

	// RabbitMQ
	mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	pipe, err := pipeline.New(pipeline.Config{
		Resolver: resolver.New(resolver.Config{
			Origin:         cfg.ListingOrigin,
			ReleaseFlag:    cfg.ReleaseFlag,
			MinGameVersion: &cfg.MinGameVersion,
			UserAgent:      cfg.UserAgent,
			Timeout:        config.TimeoutOrNone(cfg.PageTimeout),
			Logger:         logger,
		}),
		Fetcher: fetcher.New(fetcher.Config{
			UserAgent: cfg.UserAgent,
			Timeout:   config.TimeoutOrNone(cfg.FetchTimeout),
			Logger:    logger,
		}),
		Unpacker: unpack.New(unpack.Config{Logger: logger}),
		Reporter: report.Multi{
			report.NewPublisher(mq.NewPublisher(mqConn, logger)),
			report.NewJournal(repo.NewInstallRepo(pool)),
		},
		ScratchDir: cfg.ScratchDir,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	w := worker.New(worker.Config{
		Runner:   pipe,
		Conn:     mqConn,
		Prefetch: cfg.WorkerPrefetch,
		Logger:   logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		telemetry.CountHTTPRequest("worker")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":" + cfg.WorkerPort

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	w.Stop()
	logger.Info("addonloader-worker stopped")
}
