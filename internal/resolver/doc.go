// Package resolver находит URL архива на странице со списком файлов проекта.
//
// # Обзор
//
// Resolver — первый этап pipeline установки. Он:
//
//   - Строит URL страницы из AddonRequest (ArchiveURL, AddonToken или Title)
//   - Загружает HTML страницы
//   - Разбирает строки таблицы релизов (.listing-project-file tr)
//   - Выбирает первую строку сверху вниз с типом "R" и мажорной версией игры >= 8
//   - Формирует абсолютный URL: <origin><href>/file
//
// # Разбор строки
//
//	колонка 0        — тип релиза (R/B/A)
//	колонка 4        — версия игры ("8.2.0" → мажорная 8)
//	последняя колонка — первая ссылка <a href="/download/123">
//
// Строки без <td> (заголовки) пропускаются.
//
// # Ошибки
//
//   - ErrListingUnreachable — сетевая ошибка или ответ не 2xx
//   - ErrNoQualifyingRelease — ни одна строка не прошла фильтр
//   - ErrMalformedListing — HTML не разобран или у выбранной строки нет ссылки
//
// Пакет не знает об этапах pipeline: пометку этапом (StageError)
// делает вызывающий код.
package resolver
