// Package pipeline выполняет установку одного аддона.
//
// Этапы идут строго последовательно:
//
//	Resolver → Fetcher → Unpacker → Reporter
//
// Первая ошибка прерывает pipeline. Reporter вызывается ровно один раз
// на запрос, с установкой в финальном этапе (SUCCEEDED или FAILED).
// Автоматических повторов нет, скачанные ранее архивы не переиспользуются.
//
// Pipeline не хранит состояние между запросами: каждый Run создаёт
// свой domain.Install, поэтому один Pipeline можно вызывать из
// нескольких горутин. Распаковка в один и тот же каталог сериализуется
// через file lock в scratch-каталоге.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/addonloader/internal/domain"
	"github.com/shaiso/addonloader/internal/telemetry"
)

// Resolver находит URL архива для запроса.
type Resolver interface {
	ResolveRequest(ctx context.Context, req domain.AddonRequest) (domain.ResolvedDownload, error)
}

// Fetcher скачивает архив в scratch-каталог.
type Fetcher interface {
	Fetch(ctx context.Context, url, title, scratchDir string) (*domain.LocalArchive, error)
}

// Unpacker распаковывает архив и удаляет его.
type Unpacker interface {
	Unpack(ctx context.Context, archivePath, destDir string) error
}

// Reporter доставляет результат установки.
type Reporter interface {
	Report(ctx context.Context, install *domain.Install) error
}

// Pipeline связывает этапы установки.
type Pipeline struct {
	resolver   Resolver
	fetcher    Fetcher
	unpacker   Unpacker
	reporter   Reporter
	scratchDir string
	locker     *dirLocker
	logger     *slog.Logger
}

// Config — конфигурация Pipeline.
type Config struct {
	Resolver Resolver
	Fetcher  Fetcher
	Unpacker Unpacker
	Reporter Reporter

	// ScratchDir — каталог для архивов и lock-файлов.
	ScratchDir string

	// Logger
	Logger *slog.Logger
}

// New создаёт Pipeline.
func New(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Resolver == nil:
		return nil, fmt.Errorf("%w: resolver", ErrMissingComponent)
	case cfg.Fetcher == nil:
		return nil, fmt.Errorf("%w: fetcher", ErrMissingComponent)
	case cfg.Unpacker == nil:
		return nil, fmt.Errorf("%w: unpacker", ErrMissingComponent)
	case cfg.Reporter == nil:
		return nil, fmt.Errorf("%w: reporter", ErrMissingComponent)
	case cfg.ScratchDir == "":
		return nil, fmt.Errorf("%w: scratch dir", ErrMissingComponent)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		resolver:   cfg.Resolver,
		fetcher:    cfg.Fetcher,
		unpacker:   cfg.Unpacker,
		reporter:   cfg.Reporter,
		scratchDir: cfg.ScratchDir,
		locker:     newDirLocker(cfg.ScratchDir),
		logger:     logger,
	}, nil
}

// Run выполняет установку и сообщает результат Reporter'у.
//
// Возвращает установку в финальном этапе; её результат доступен
// через Install.Outcome(). Ошибка возвращается только если
// не удалось доставить результат.
func (p *Pipeline) Run(ctx context.Context, req domain.AddonRequest) (*domain.Install, error) {
	install := domain.NewInstall(req)

	logger := telemetry.WithInstallID(
		telemetry.WithCorrelationID(p.logger, req.CorrelationID),
		install.ID.String(),
	)
	ctx = telemetry.WithLogger(ctx, logger)

	if err := p.execute(ctx, install); err != nil {
		if markErr := install.MarkFailed(err); markErr != nil {
			logger.Error("failed to mark install as failed", "error", markErr)
		}
		logger.Warn("install failed",
			"stage", install.FailedStage,
			"error", install.Error,
		)
	} else {
		logger.Info("install succeeded",
			"addon", req.DisplayName(),
			"duration", install.Duration(),
		)
	}

	telemetry.ObserveInstall(install.Stage == domain.StageFailed, string(install.FailedStage))

	// результат доставляется даже при отменённом ctx
	if err := p.reporter.Report(context.WithoutCancel(ctx), install); err != nil {
		logger.Error("failed to report outcome", "error", err)
		return install, fmt.Errorf("report outcome: %w", err)
	}

	return install, nil
}

// execute проходит этапы и возвращает StageError при первой ошибке.
func (p *Pipeline) execute(ctx context.Context, install *domain.Install) error {
	logger := telemetry.FromContext(ctx)
	req := install.Request

	if err := install.Begin(); err != nil {
		return err
	}
	logger.Info("install started",
		"addon", req.DisplayName(),
		"dest", req.AddonsDirectory,
	)

	if err := req.Validate(); err != nil {
		return domain.NewStageError(domain.StageResolving, err)
	}

	// RESOLVING
	var download domain.ResolvedDownload
	err := p.stage(ctx, domain.StageResolving, func() error {
		var err error
		download, err = p.resolver.ResolveRequest(ctx, req)
		return err
	})
	if err != nil {
		return err
	}
	if err := install.MarkFetching(download); err != nil {
		return err
	}
	logger.Info("listing resolved", "url", download.URL)

	// FETCHING
	var archive *domain.LocalArchive
	err = p.stage(ctx, domain.StageFetching, func() error {
		var err error
		archive, err = p.fetcher.Fetch(ctx, download.URL, req.DisplayName(), p.scratchDir)
		return err
	})
	if err != nil {
		return err
	}
	if err := install.MarkUnpacking(*archive); err != nil {
		return err
	}
	telemetry.AddDownloadedBytes(archive.Size)
	logger.Info("archive downloaded", "path", archive.Path, "bytes", archive.Size)

	// UNPACKING
	err = p.stage(ctx, domain.StageUnpacking, func() error {
		unlock, err := p.locker.Lock(ctx, req.AddonsDirectory)
		if err != nil {
			return err
		}
		defer unlock()
		return p.unpacker.Unpack(ctx, archive.Path, req.AddonsDirectory)
	})
	if err != nil {
		return err
	}
	logger.Info("archive unpacked", "dest", req.AddonsDirectory)

	return install.MarkSucceeded()
}

// stage выполняет fn, замеряет длительность и помечает ошибку этапом.
func (p *Pipeline) stage(ctx context.Context, stage domain.Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return domain.NewStageError(stage, err)
	}

	start := time.Now()
	err := fn()
	telemetry.ObserveStage(stage.String(), time.Since(start))

	if err != nil {
		return domain.NewStageError(stage, err)
	}
	return nil
}
