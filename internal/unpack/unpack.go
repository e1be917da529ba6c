// Package unpack распаковывает zip-архив аддона в каталог назначения.
//
// Порядок работы:
//  1. открыть архив и проверить пути всех записей
//  2. создать каталог назначения
//  3. распаковать все записи с перезаписью существующих файлов
//  4. удалить архив
//
// Если шаги 1–3 не удались, архив остаётся на диске.
package unpack

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// Unpacker распаковывает архивы.
type Unpacker struct {
	logger *slog.Logger
}

// Config — конфигурация Unpacker.
type Config struct {
	Logger *slog.Logger
}

// New создаёт Unpacker.
func New(cfg Config) *Unpacker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Unpacker{logger: logger}
}

// Unpack распаковывает archivePath в destDir и удаляет архив.
func (u *Unpacker) Unpack(ctx context.Context, archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if errors.Is(err, zip.ErrInsecurePath) {
		// при GODEBUG=zipinsecurepath=0 reader возвращается вместе с ошибкой
		if zr != nil {
			zr.Close()
		}
		return fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}

	if err := validate(zr.File); err != nil {
		zr.Close()
		return err
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		zr.Close()
		return fmt.Errorf("%w: create destination: %v", ErrExtract, err)
	}

	files := 0
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			zr.Close()
			return fmt.Errorf("%w: %v", ErrExtract, err)
		}
		if err := extractEntry(f, destDir); err != nil {
			zr.Close()
			return err
		}
		if !f.FileInfo().IsDir() {
			files++
		}
	}

	// архив нужно закрыть до удаления
	if err := zr.Close(); err != nil {
		return fmt.Errorf("%w: close archive: %v", ErrCleanup, err)
	}

	if err := os.Remove(archivePath); err != nil {
		return fmt.Errorf("%w: %v", ErrCleanup, err)
	}

	u.logger.Debug("archive extracted", "dest", destDir, "files", files)
	return nil
}

// validate проверяет все записи до того, как что-либо будет записано.
func validate(files []*zip.File) error {
	for _, f := range files {
		name := entryName(f)
		if name == "" {
			continue
		}
		if !filepath.IsLocal(name) {
			return fmt.Errorf("%w: %q", ErrUnsafePath, f.Name)
		}
		if f.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%w: symlink %q", ErrUnsafePath, f.Name)
		}
	}
	return nil
}

// entryName приводит имя записи к пути ОС.
// Некоторые архиваторы под Windows пишут обратные слэши.
func entryName(f *zip.File) string {
	name := strings.ReplaceAll(f.Name, `\`, "/")
	name = strings.TrimSuffix(name, "/")
	return filepath.FromSlash(name)
}

func extractEntry(f *zip.File, destDir string) error {
	name := entryName(f)
	if name == "" {
		return nil
	}

	path, err := securejoin.SecureJoin(destDir, name)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsafePath, f.Name, err)
	}

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrExtract, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrExtract, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open entry %q: %v", ErrCorruptArchive, f.Name, err)
	}
	defer src.Close()

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtract, err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		// контрольная сумма записи проверяется при чтении
		if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrFormat) {
			return fmt.Errorf("%w: %q: %v", ErrCorruptArchive, f.Name, err)
		}
		return fmt.Errorf("%w: %q: %v", ErrExtract, f.Name, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrExtract, err)
	}
	return nil
}
