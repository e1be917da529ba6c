package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (повторяют api/dto.go, чтобы клиент не зависел от сервера) ---

// AddonRequest — запрос на установку.
type AddonRequest struct {
	Title           string `json:"title,omitempty"`
	ArchiveURL      string `json:"archive_url,omitempty"`
	AddonToken      string `json:"addon_token,omitempty"`
	AddonsDirectory string `json:"addons_directory"`
	CorrelationID   string `json:"correlation_id,omitempty"`
}

// Outcome — итог установки.
type Outcome struct {
	CorrelationID string `json:"correlation_id"`
	Failed        bool   `json:"failed"`
	Error         *struct {
		Stage   string `json:"stage"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// InstallResponse — запись журнала установок.
type InstallResponse struct {
	ID          string       `json:"id"`
	Request     AddonRequest `json:"request"`
	Stage       string       `json:"stage"`
	DownloadURL string       `json:"download_url,omitempty"`
	ArchiveSize int64        `json:"archive_size,omitempty"`
	Outcome     Outcome      `json:"outcome"`
	StartedAt   string       `json:"started_at,omitempty"`
	FinishedAt  string       `json:"finished_at,omitempty"`
	CreatedAt   string       `json:"created_at"`
}

// ScheduleResponse — расписание.
type ScheduleResponse struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Request           AddonRequest `json:"request"`
	CronExpr          string       `json:"cron_expr,omitempty"`
	IntervalSec       int          `json:"interval_sec,omitempty"`
	Timezone          string       `json:"timezone"`
	Enabled           bool         `json:"enabled"`
	NextDueAt         string       `json:"next_due_at,omitempty"`
	LastRunAt         string       `json:"last_run_at,omitempty"`
	LastCorrelationID string       `json:"last_correlation_id,omitempty"`
	CreatedAt         string       `json:"created_at"`
	UpdatedAt         string       `json:"updated_at"`
}

// CreateScheduleRequest — создание расписания.
type CreateScheduleRequest struct {
	Name        string       `json:"name,omitempty"`
	Request     AddonRequest `json:"request"`
	CronExpr    string       `json:"cron_expr,omitempty"`
	IntervalSec int          `json:"interval_sec,omitempty"`
	Timezone    string       `json:"timezone,omitempty"`
}

// ListInstallsOpts — фильтр журнала.
type ListInstallsOpts struct {
	Stage string
	Limit int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, которую вернул API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент addonloader API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// --- Installs ---

// EnqueueInstall ставит установку в очередь и возвращает correlation id.
func (c *Client) EnqueueInstall(req AddonRequest) (string, error) {
	var resp struct {
		CorrelationID string `json:"correlation_id"`
	}
	err := c.doData(http.MethodPost, "/api/v1/installs", req, &resp)
	return resp.CorrelationID, err
}

// ListInstalls возвращает журнал установок.
func (c *Client) ListInstalls(opts ListInstallsOpts) ([]InstallResponse, error) {
	params := url.Values{}
	if opts.Stage != "" {
		params.Set("stage", opts.Stage)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var installs []InstallResponse
	err := c.list("/api/v1/installs", params, &installs)
	return installs, err
}

// GetInstall возвращает установку по correlation id.
func (c *Client) GetInstall(correlationID string) (*InstallResponse, error) {
	var install InstallResponse
	err := c.doData(http.MethodGet, "/api/v1/installs/"+url.PathEscape(correlationID), nil, &install)
	return &install, err
}

// --- Schedules ---

// ListSchedules возвращает расписания.
func (c *Client) ListSchedules() ([]ScheduleResponse, error) {
	var schedules []ScheduleResponse
	err := c.list("/api/v1/schedules", nil, &schedules)
	return schedules, err
}

// CreateSchedule создаёт расписание.
func (c *Client) CreateSchedule(req CreateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.doData(http.MethodPost, "/api/v1/schedules", req, &schedule)
	return &schedule, err
}

// GetSchedule возвращает расписание по ID.
func (c *Client) GetSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.doData(http.MethodGet, "/api/v1/schedules/"+id, nil, &schedule)
	return &schedule, err
}

// DeleteSchedule удаляет расписание.
func (c *Client) DeleteSchedule(id string) error {
	return c.doData(http.MethodDelete, "/api/v1/schedules/"+id, nil, nil)
}

// SetScheduleEnabled включает или выключает расписание.
func (c *Client) SetScheduleEnabled(id string, enabled bool) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": enabled}
	err := c.doData(http.MethodPut, "/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// --- HTTP helpers ---

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNoContent || result == nil {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return json.Unmarshal(dr.Data, result)
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}
