package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	installsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "addonloader_installs_total",
		Help: "Finished addon installs by result and failed stage",
	}, []string{"result", "stage"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "addonloader_stage_duration_seconds",
		Help:    "Duration of pipeline stages",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
	}, []string{"stage"})

	downloadedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "addonloader_downloaded_bytes_total",
		Help: "Total bytes of addon archives downloaded",
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "addonloader_http_requests_total",
		Help: "HTTP requests handled by addonloader services",
	}, []string{"service"})
)

// ObserveInstall учитывает завершённую установку.
// Для успешной установки stage пустой.
func ObserveInstall(failed bool, stage string) {
	result := "succeeded"
	if failed {
		result = "failed"
	}
	installsTotal.WithLabelValues(result, stage).Inc()
}

// ObserveStage записывает длительность этапа pipeline.
func ObserveStage(stage string, d time.Duration) {
	stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddDownloadedBytes увеличивает счётчик скачанных байт.
func AddDownloadedBytes(n int64) {
	if n > 0 {
		downloadedBytes.Add(float64(n))
	}
}

// CountHTTPRequest учитывает HTTP-запрос к сервису.
func CountHTTPRequest(service string) {
	httpRequestsTotal.WithLabelValues(service).Inc()
}
