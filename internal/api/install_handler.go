package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/addonloader/internal/domain"
	"github.com/shaiso/addonloader/internal/repo"
)

// CreateInstall ставит установку в очередь.
// POST /api/v1/installs
func (h *Handler) CreateInstall(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		Unavailable(w, "install queue is not configured")
		return
	}

	var req CreateInstallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		BadRequest(w, err.Error())
		return
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}

	if err := h.enqueuer.PublishInstallRequest(r.Context(), req); err != nil {
		h.logger.Error("failed to enqueue install", "correlation_id", req.CorrelationID, "error", err)
		Unavailable(w, "failed to enqueue install")
		return
	}

	Accepted(w, CreateInstallResponse{CorrelationID: req.CorrelationID})
}

// ListInstalls возвращает журнал установок.
// GET /api/v1/installs?stage=FAILED&limit=...&offset=...
func (h *Handler) ListInstalls(w http.ResponseWriter, r *http.Request) {
	filter := repo.InstallFilter{}
	filter.Limit, filter.Offset = pagination(r)

	if s := r.URL.Query().Get("stage"); s != "" {
		stage := domain.Stage(s)
		if !stage.IsTerminal() {
			BadRequest(w, "stage must be SUCCEEDED or FAILED")
			return
		}
		filter.Stage = &stage
	}

	installs, err := h.installs.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]InstallResponse, len(installs))
	for i := range installs {
		result[i] = InstallFromDomain(&installs[i])
	}
	List(w, result, len(result))
}

// GetInstall возвращает последнюю установку с данным correlation id.
// GET /api/v1/installs/{correlation_id}
func (h *Handler) GetInstall(w http.ResponseWriter, r *http.Request) {
	correlationID := r.PathValue("correlation_id")
	if correlationID == "" {
		BadRequest(w, "correlation id is required")
		return
	}

	// 404 также означает, что worker ещё не обработал запрос
	install, err := h.installs.GetByCorrelationID(r.Context(), correlationID)
	if HandleRepoError(w, h.logger, err, "install not found") {
		return
	}

	Success(w, InstallFromDomain(install))
}
