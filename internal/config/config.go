// Package config читает конфигурацию сервисов addonloader из переменных окружения.
//
// Все значения имеют значения по умолчанию, поэтому CLI работает
// без какой-либо настройки. Некорректные числа заменяются значением
// по умолчанию, а Load возвращает ошибку с перечнем таких переменных.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Значения по умолчанию.
const (
	DefaultListingOrigin  = "https://www.curseforge.com"
	DefaultReleaseFlag    = "R"
	DefaultMinGameVersion = 8
	DefaultUserAgent      = "addonloader/1.0"
	DefaultPageTimeout    = 30 * time.Second
	DefaultFetchTimeout   = 10 * time.Minute
	DefaultAPIPort        = "8080"
	DefaultSchedulerPort  = "8081"
	DefaultWorkerPort     = "8082"
	DefaultPrefetch       = 5
)

// ErrInvalidValue — переменная окружения содержит некорректное значение.
var ErrInvalidValue = errors.New("invalid config value")

// Config — конфигурация pipeline и сервисов.
type Config struct {
	// ListingOrigin — origin сайта со страницами аддонов.
	ListingOrigin string

	// ReleaseFlag — тип релиза в первой колонке таблицы ("R").
	ReleaseFlag string

	// MinGameVersion — минимальная мажорная версия игры (0 — любая распознанная).
	MinGameVersion int

	// ScratchDir — каталог для временных архивов и lock-файлов.
	ScratchDir string

	// UserAgent для HTTP-запросов.
	UserAgent string

	// PageTimeout — таймаут загрузки страницы (0 — без таймаута).
	PageTimeout time.Duration

	// FetchTimeout — таймаут скачивания архива (0 — без таймаута).
	FetchTimeout time.Duration

	// DatabaseURL — строка подключения к PostgreSQL.
	DatabaseURL string

	// RabbitMQURL — адрес брокера.
	RabbitMQURL string

	APIPort       string
	WorkerPort    string
	SchedulerPort string

	// WorkerPrefetch — сколько запросов worker обрабатывает параллельно.
	WorkerPrefetch int
}

// Default возвращает конфигурацию по умолчанию.
func Default() Config {
	return Config{
		ListingOrigin:  DefaultListingOrigin,
		ReleaseFlag:    DefaultReleaseFlag,
		MinGameVersion: DefaultMinGameVersion,
		ScratchDir:     filepath.Join(os.TempDir(), "addonloader"),
		UserAgent:      DefaultUserAgent,
		PageTimeout:    DefaultPageTimeout,
		FetchTimeout:   DefaultFetchTimeout,
		APIPort:        DefaultAPIPort,
		WorkerPort:     DefaultWorkerPort,
		SchedulerPort:  DefaultSchedulerPort,
		WorkerPrefetch: DefaultPrefetch,
	}
}

// Load читает конфигурацию из окружения.
//
// Возвращённая Config всегда пригодна к использованию, даже вместе с ошибкой.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}

	num := func(key string, dst *int, min int) {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < min {
			errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v))
			return
		}
		*dst = n
	}

	seconds := func(key string, dst *time.Duration) {
		n := -1
		num(key, &n, 0)
		if n >= 0 {
			*dst = time.Duration(n) * time.Second
		}
	}

	str("LISTING_ORIGIN", &cfg.ListingOrigin)
	str("RELEASE_FLAG", &cfg.ReleaseFlag)
	num("MIN_GAME_VERSION", &cfg.MinGameVersion, 0)
	str("SCRATCH_DIR", &cfg.ScratchDir)
	str("USER_AGENT", &cfg.UserAgent)
	seconds("PAGE_TIMEOUT_SEC", &cfg.PageTimeout)
	seconds("FETCH_TIMEOUT_SEC", &cfg.FetchTimeout)
	str("DB_URL", &cfg.DatabaseURL)
	str("RABBITMQ_URL", &cfg.RabbitMQURL)
	str("API_PORT", &cfg.APIPort)
	str("WORKER_PORT", &cfg.WorkerPort)
	str("SCHED_PORT", &cfg.SchedulerPort)
	num("WORKER_PREFETCH", &cfg.WorkerPrefetch, 1)

	cfg.ListingOrigin = strings.TrimRight(cfg.ListingOrigin, "/")

	return cfg, errors.Join(errs...)
}

// TimeoutOrNone переводит значение конфигурации в таймаут компонента:
// 0 в конфигурации означает «без таймаута», что компоненты ожидают как < 0.
func TimeoutOrNone(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}
