package domain

import (
	"fmt"
	"strings"
)

// AddonRequest — запрос на установку одного аддона.
//
// Страница со списком файлов определяется так:
//   - ArchiveURL, если задан, используется как есть
//   - иначе URL строится из AddonToken
//   - если нет и AddonToken — из Title
//
// CorrelationID не интерпретируется и возвращается в OutcomeMessage без изменений.
type AddonRequest struct {
	// Title — человекочитаемое имя аддона (используется в имени scratch-файла).
	Title string `json:"title"`

	// ArchiveURL — полный URL страницы со списком файлов.
	ArchiveURL string `json:"archive_url,omitempty"`

	// AddonToken — slug проекта на CurseForge, например "aptechka".
	AddonToken string `json:"addon_token,omitempty"`

	// AddonsDirectory — абсолютный путь к каталогу, куда распаковывается архив.
	AddonsDirectory string `json:"addons_directory"`

	// CorrelationID — непрозрачный идентификатор запроса.
	CorrelationID string `json:"correlation_id"`
}

// Slug возвращает сегмент пути для построения URL страницы:
// AddonToken, а при его отсутствии — Title.
func (r *AddonRequest) Slug() string {
	if token := strings.TrimSpace(r.AddonToken); token != "" {
		return token
	}
	return strings.TrimSpace(r.Title)
}

// DisplayName возвращает имя для логов и имени файла.
func (r *AddonRequest) DisplayName() string {
	if title := strings.TrimSpace(r.Title); title != "" {
		return title
	}
	return strings.TrimSpace(r.AddonToken)
}

// Validate проверяет, что из запроса можно построить pipeline.
func (r *AddonRequest) Validate() error {
	if strings.TrimSpace(r.ArchiveURL) == "" && r.Slug() == "" {
		return fmt.Errorf("%w: one of archive_url, addon_token or title is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.AddonsDirectory) == "" {
		return fmt.Errorf("%w: addons_directory is required", ErrInvalidRequest)
	}
	return nil
}
