package domain

// ReleaseRow — строка таблицы релизов, распарсенная со страницы.
// Существует только во время резолвинга.
type ReleaseRow struct {
	// ReleaseType — тип сборки ("R" — release, "B" — beta, "A" — alpha).
	ReleaseType string

	// GameVersion — версия игры в исходном виде, например "8.2.0".
	GameVersion string

	// GameVersionMajor — мажорная версия игры (ведущее целое число GameVersion).
	GameVersionMajor int

	// HasMajor — false, если GameVersion не начинается с числа.
	HasMajor bool

	// DownloadHref — относительный путь к странице загрузки.
	DownloadHref string
}

// Qualifies проверяет, подходит ли строка под фильтр resolver'а.
// Строка без распознанной мажорной версии не подходит никогда.
func (r ReleaseRow) Qualifies(releaseFlag string, minMajor int) bool {
	if r.ReleaseType != releaseFlag {
		return false
	}
	return r.HasMajor && r.GameVersionMajor >= minMajor
}

// ResolvedDownload — абсолютный URL архива. Неизменяем после создания.
type ResolvedDownload struct {
	URL string `json:"url"`
}

// LocalArchive — скачанный, но ещё не распакованный файл.
// Принадлежит одному запуску pipeline.
type LocalArchive struct {
	// Path — путь к файлу в scratch-каталоге.
	Path string `json:"path"`

	// Size — количество записанных байт.
	Size int64 `json:"size"`
}
