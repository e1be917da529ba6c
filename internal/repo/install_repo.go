package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/addonloader/internal/domain"
)

// InstallRepo — журнал завершённых установок.
//
// Pipeline только пишет в журнал; читают его API и CLI.
type InstallRepo struct {
	pool *pgxpool.Pool
}

// NewInstallRepo создаёт InstallRepo.
func NewInstallRepo(pool *pgxpool.Pool) *InstallRepo {
	return &InstallRepo{pool: pool}
}

// InstallFilter — параметры выборки журнала.
type InstallFilter struct {
	// Stage — только установки в этом этапе (SUCCEEDED/FAILED).
	Stage  *domain.Stage
	Limit  int
	Offset int
}

const installColumns = `
	id, correlation_id, request, stage, failed_stage, download_url,
	archive_path, archive_size, error, started_at, finished_at, created_at`

// Save записывает установку. Повторная запись с тем же ID обновляет строку.
func (r *InstallRepo) Save(ctx context.Context, install *domain.Install) error {
	requestJSON, err := json.Marshal(install.Request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var downloadURL, archivePath *string
	var archiveSize *int64
	if install.Download != nil {
		downloadURL = &install.Download.URL
	}
	if install.Archive != nil {
		archivePath = &install.Archive.Path
		archiveSize = &install.Archive.Size
	}

	query := `
		INSERT INTO installs (` + installColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE
		SET stage = EXCLUDED.stage, failed_stage = EXCLUDED.failed_stage,
		    download_url = EXCLUDED.download_url, archive_path = EXCLUDED.archive_path,
		    archive_size = EXCLUDED.archive_size, error = EXCLUDED.error,
		    started_at = EXCLUDED.started_at, finished_at = EXCLUDED.finished_at
	`
	_, err = r.pool.Exec(ctx, query,
		install.ID,
		install.Request.CorrelationID,
		requestJSON,
		install.Stage,
		nullString(string(install.FailedStage)),
		downloadURL,
		archivePath,
		archiveSize,
		nullString(install.Error),
		install.StartedAt,
		install.FinishedAt,
		install.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save install: %w", err)
	}
	return nil
}

// GetByCorrelationID возвращает последнюю установку с данным correlation id.
func (r *InstallRepo) GetByCorrelationID(ctx context.Context, correlationID string) (*domain.Install, error) {
	query := `SELECT ` + installColumns + `
		FROM installs
		WHERE correlation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanInstall(r.pool.QueryRow(ctx, query, correlationID))
}

// List возвращает установки, новые первыми.
func (r *InstallRepo) List(ctx context.Context, filter InstallFilter) ([]domain.Install, error) {
	var stage *string
	if filter.Stage != nil {
		s := string(*filter.Stage)
		stage = &s
	}

	query := `SELECT ` + installColumns + `
		FROM installs
		WHERE ($1::text IS NULL OR stage = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, stage, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list installs: %w", err)
	}
	defer rows.Close()

	var installs []domain.Install
	for rows.Next() {
		install, err := scanInstall(rows)
		if err != nil {
			return nil, err
		}
		installs = append(installs, *install)
	}
	return installs, rows.Err()
}

// scanInstall читает строку из QueryRow или Rows (оба реализуют pgx.Row).
func scanInstall(row pgx.Row) (*domain.Install, error) {
	var i domain.Install
	var requestJSON []byte
	var failedStage, downloadURL, archivePath, errText *string
	var archiveSize *int64

	err := row.Scan(
		&i.ID,
		&i.Request.CorrelationID,
		&requestJSON,
		&i.Stage,
		&failedStage,
		&downloadURL,
		&archivePath,
		&archiveSize,
		&errText,
		&i.StartedAt,
		&i.FinishedAt,
		&i.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan install: %w", err)
	}

	if err := json.Unmarshal(requestJSON, &i.Request); err != nil {
		return nil, fmt.Errorf("unmarshal request: %w", err)
	}

	i.FailedStage = domain.Stage(derefString(failedStage))
	i.Error = derefString(errText)
	if downloadURL != nil {
		i.Download = &domain.ResolvedDownload{URL: *downloadURL}
	}
	if archivePath != nil {
		i.Archive = &domain.LocalArchive{Path: *archivePath}
		if archiveSize != nil {
			i.Archive.Size = *archiveSize
		}
	}

	return &i, nil
}
