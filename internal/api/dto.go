package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/addonloader/internal/domain"
)

// Install DTOs

// CreateInstallRequest — тело POST /api/v1/installs.
// correlation_id можно не указывать, тогда он будет сгенерирован.
type CreateInstallRequest = domain.AddonRequest

// CreateInstallResponse — ответ на постановку в очередь.
type CreateInstallResponse struct {
	CorrelationID string `json:"correlation_id"`
}

// InstallResponse — запись журнала установок.
type InstallResponse struct {
	ID          uuid.UUID             `json:"id"`
	Request     domain.AddonRequest   `json:"request"`
	Stage       domain.Stage          `json:"stage"`
	DownloadURL string                `json:"download_url,omitempty"`
	ArchiveSize int64                 `json:"archive_size,omitempty"`
	Outcome     domain.OutcomeMessage `json:"outcome"`
	StartedAt   *time.Time            `json:"started_at,omitempty"`
	FinishedAt  *time.Time            `json:"finished_at,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// InstallFromDomain конвертирует domain.Install в InstallResponse.
func InstallFromDomain(i *domain.Install) InstallResponse {
	resp := InstallResponse{
		ID:         i.ID,
		Request:    i.Request,
		Stage:      i.Stage,
		Outcome:    i.Outcome(),
		StartedAt:  i.StartedAt,
		FinishedAt: i.FinishedAt,
		CreatedAt:  i.CreatedAt,
	}
	if i.Download != nil {
		resp.DownloadURL = i.Download.URL
	}
	if i.Archive != nil {
		resp.ArchiveSize = i.Archive.Size
	}
	return resp
}

// Schedule DTOs

// CreateScheduleRequest — тело POST /api/v1/schedules.
type CreateScheduleRequest struct {
	Name        string              `json:"name"`
	Request     domain.AddonRequest `json:"request"`
	CronExpr    string              `json:"cron_expr,omitempty"`
	IntervalSec int                 `json:"interval_sec,omitempty"`
	Timezone    string              `json:"timezone,omitempty"`
	Enabled     *bool               `json:"enabled,omitempty"`
}

// SetEnabledRequest — тело PUT /api/v1/schedules/{id}/enabled.
type SetEnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// ScheduleResponse — расписание.
type ScheduleResponse struct {
	ID                uuid.UUID           `json:"id"`
	Name              string              `json:"name,omitempty"`
	Request           domain.AddonRequest `json:"request"`
	CronExpr          string              `json:"cron_expr,omitempty"`
	IntervalSec       int                 `json:"interval_sec,omitempty"`
	Timezone          string              `json:"timezone"`
	Enabled           bool                `json:"enabled"`
	NextDueAt         *time.Time          `json:"next_due_at,omitempty"`
	LastRunAt         *time.Time          `json:"last_run_at,omitempty"`
	LastCorrelationID string              `json:"last_correlation_id,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// ScheduleFromDomain конвертирует domain.Schedule в ScheduleResponse.
func ScheduleFromDomain(s *domain.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:                s.ID,
		Name:              s.Name,
		Request:           s.Request,
		CronExpr:          s.CronExpr,
		IntervalSec:       s.IntervalSec,
		Timezone:          s.Timezone,
		Enabled:           s.Enabled,
		NextDueAt:         s.NextDueAt,
		LastRunAt:         s.LastRunAt,
		LastCorrelationID: s.LastCorrelationID,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}
