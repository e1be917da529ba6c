package resolver

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shaiso/addonloader/internal/domain"
)

// Значения по умолчанию.
const (
	DefaultOrigin         = "https://www.curseforge.com"
	DefaultReleaseFlag    = "R"
	DefaultMinGameVersion = 8

	// rowSelector — строки таблицы релизов.
	rowSelector = ".listing-project-file tr"

	// fileSuffix запрашивает сам файл вместо страницы загрузки.
	fileSuffix = "/file"

	// gameVersionColumn — индекс колонки с версией игры.
	gameVersionColumn = 4
)

// ListingURL возвращает URL страницы со списком файлов для запроса.
//
// ArchiveURL используется как есть, иначе:
// <origin>/wow/addons/<addonToken-или-title>/files
func ListingURL(origin string, req domain.AddonRequest) string {
	if archiveURL := strings.TrimSpace(req.ArchiveURL); archiveURL != "" {
		return archiveURL
	}
	return fmt.Sprintf("%s/wow/addons/%s/files", trimOrigin(origin), url.PathEscape(req.Slug()))
}

// ParseRows разбирает строки таблицы релизов в порядке документа.
func ParseRows(r io.Reader) ([]domain.ReleaseRow, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedListing, err)
	}

	var rows []domain.ReleaseRow
	doc.Find(rowSelector).Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() == 0 {
			return
		}

		gameVersion := strings.TrimSpace(tds.Eq(gameVersionColumn).Text())
		major, ok := leadingInt(gameVersion)

		href, _ := tds.Last().Find("a").First().Attr("href")

		rows = append(rows, domain.ReleaseRow{
			ReleaseType:      strings.TrimSpace(tds.Eq(0).Text()),
			GameVersion:      gameVersion,
			GameVersionMajor: major,
			HasMajor:         ok,
			DownloadHref:     strings.TrimSpace(href),
		})
	})

	return rows, nil
}

// SelectRelease возвращает первую строку, прошедшую фильтр.
// ok=false, если подходящей строки нет.
func SelectRelease(rows []domain.ReleaseRow, releaseFlag string, minMajor int) (domain.ReleaseRow, bool) {
	for _, row := range rows {
		if row.Qualifies(releaseFlag, minMajor) {
			return row, true
		}
	}
	return domain.ReleaseRow{}, false
}

// DownloadURL формирует абсолютный URL файла: <origin><href>/file.
// Абсолютная ссылка используется без префикса.
func DownloadURL(origin, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href + fileSuffix
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return trimOrigin(origin) + href + fileSuffix
}

// leadingInt разбирает ведущее десятичное число: "8.2.0" → 8, "10" → 10.
// Число, не помещающееся в int, считается нераспознанным.
func leadingInt(s string) (int, bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func trimOrigin(origin string) string {
	return strings.TrimRight(origin, "/")
}
