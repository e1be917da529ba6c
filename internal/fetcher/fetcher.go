// Package fetcher скачивает архив по URL в scratch-каталог.
//
// Тело ответа пишется потоково в файл <имя>.part, затем файл
// синхронизируется, закрывается и переименовывается. Fetch возвращает
// управление только после того, как все байты записаны на диск.
// При любой ошибке частичный файл удаляется.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/addonloader/internal/domain"
)

const (
	defaultFetchTimeout = 10 * time.Minute
	archiveExt          = ".zip"
	partExt             = ".part"
	maxNameLen          = 64
)

// Fetcher скачивает архивы.
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

// Config — конфигурация Fetcher.
type Config struct {
	// Client — HTTP-клиент (опционально).
	Client *http.Client

	// UserAgent — заголовок User-Agent.
	UserAgent string

	// Timeout — таймаут на всё скачивание (default: 10m, <0 — без таймаута).
	Timeout time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт Fetcher.
func New(cfg Config) *Fetcher {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultFetchTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		timeout:   timeout,
		logger:    logger,
	}
}

// Fetch скачивает url в уникальный файл внутри scratchDir.
// title используется как префикс имени файла.
func (f *Fetcher) Fetch(ctx context.Context, url, title, scratchDir string) (*domain.LocalArchive, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrTransfer, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransfer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrTransfer, resp.StatusCode, url)
	}

	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create scratch dir: %v", ErrWrite, err)
	}

	dest := filepath.Join(scratchDir, ArchiveName(title))
	size, err := writeFile(dest, resp.Body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("archive written", "path", dest, "bytes", size)

	return &domain.LocalArchive{Path: dest, Size: size}, nil
}

// writeFile пишет body во временный файл и переименовывает его в dest.
func writeFile(dest string, body io.Reader) (int64, error) {
	tmp := dest + partExt
	file, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	cleanup := func() {
		file.Close()
		os.Remove(tmp)
	}

	size, err := io.Copy(file, body)
	if err != nil {
		cleanup()
		// io.Copy не различает ошибки чтения и записи
		return 0, fmt.Errorf("%w: copy body: %v", ErrTransfer, err)
	}

	if err := file.Sync(); err != nil {
		cleanup()
		return 0, fmt.Errorf("%w: sync: %v", ErrWrite, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("%w: close: %v", ErrWrite, err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("%w: rename: %v", ErrWrite, err)
	}

	return size, nil
}

// ArchiveName возвращает уникальное имя файла: <title>-<uuid>.zip.
func ArchiveName(title string) string {
	return sanitize(title) + "-" + uuid.NewString() + archiveExt
}

// sanitize оставляет в имени только безопасные для файловой системы символы.
func sanitize(title string) string {
	var b strings.Builder
	for _, c := range strings.TrimSpace(title) {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
		if b.Len() >= maxNameLen {
			break
		}
	}

	name := strings.Trim(b.String(), ".")
	if name == "" {
		return "addon"
	}
	return name
}
