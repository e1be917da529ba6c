package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shaiso/addonloader/internal/domain"
)

const defaultPageTimeout = 30 * time.Second

// Resolver загружает страницу со списком файлов и выбирает архив.
type Resolver struct {
	origin      string
	releaseFlag string
	minMajor    int
	userAgent   string
	timeout     time.Duration
	client      *http.Client
	logger      *slog.Logger
}

// Config — конфигурация Resolver.
type Config struct {
	// Origin — базовый адрес сайта (default: https://www.curseforge.com).
	Origin string

	// ReleaseFlag — тип релиза для выбора (default: "R").
	ReleaseFlag string

	// MinGameVersion — минимальная мажорная версия игры (nil: 8).
	// 0 и отрицательные значения пропускают любую распознанную версию.
	MinGameVersion *int

	// UserAgent — заголовок User-Agent для запросов страницы.
	UserAgent string

	// Timeout — таймаут загрузки страницы (default: 30s, <0 — без таймаута).
	Timeout time.Duration

	// Client — HTTP-клиент (опционально).
	Client *http.Client

	// Logger
	Logger *slog.Logger
}

// New создаёт Resolver.
func New(cfg Config) *Resolver {
	origin := cfg.Origin
	if origin == "" {
		origin = DefaultOrigin
	}

	releaseFlag := cfg.ReleaseFlag
	if releaseFlag == "" {
		releaseFlag = DefaultReleaseFlag
	}

	minMajor := DefaultMinGameVersion
	if cfg.MinGameVersion != nil {
		minMajor = *cfg.MinGameVersion
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultPageTimeout
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		origin:      origin,
		releaseFlag: releaseFlag,
		minMajor:    minMajor,
		userAgent:   cfg.UserAgent,
		timeout:     timeout,
		client:      client,
		logger:      logger,
	}
}

// ListingURL возвращает URL страницы для запроса.
func (r *Resolver) ListingURL(req domain.AddonRequest) string {
	return ListingURL(r.origin, req)
}

// ResolveRequest строит URL страницы из запроса и резолвит его.
func (r *Resolver) ResolveRequest(ctx context.Context, req domain.AddonRequest) (domain.ResolvedDownload, error) {
	return r.Resolve(ctx, r.ListingURL(req))
}

// Resolve загружает страницу pageURL и возвращает URL выбранного архива.
func (r *Resolver) Resolve(ctx context.Context, pageURL string) (domain.ResolvedDownload, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.ResolvedDownload{}, fmt.Errorf("%w: create request: %v", ErrListingUnreachable, err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	r.logger.Debug("fetching listing page", "url", pageURL)

	resp, err := r.client.Do(req)
	if err != nil {
		return domain.ResolvedDownload{}, fmt.Errorf("%w: %v", ErrListingUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ResolvedDownload{}, fmt.Errorf("%w: HTTP %d from %s", ErrListingUnreachable, resp.StatusCode, pageURL)
	}

	rows, err := ParseRows(resp.Body)
	if err != nil {
		return domain.ResolvedDownload{}, err
	}

	row, ok := SelectRelease(rows, r.releaseFlag, r.minMajor)
	if !ok {
		return domain.ResolvedDownload{}, fmt.Errorf("%w: %d rows on %s, none with type %q and game version >= %d",
			ErrNoQualifyingRelease, len(rows), pageURL, r.releaseFlag, r.minMajor)
	}

	if row.DownloadHref == "" {
		return domain.ResolvedDownload{}, fmt.Errorf("%w: selected release (game version %s) has no download link",
			ErrMalformedListing, row.GameVersion)
	}

	download := domain.ResolvedDownload{URL: DownloadURL(r.origin, row.DownloadHref)}

	r.logger.Debug("release selected",
		"game_version", row.GameVersion,
		"href", row.DownloadHref,
		"url", download.URL,
	)

	return download, nil
}
