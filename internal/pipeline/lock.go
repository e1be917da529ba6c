package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 100 * time.Millisecond

// dirLocker сериализует распаковку в один и тот же каталог
// между горутинами и процессами.
//
// Lock-файлы лежат в scratch-каталоге, а не в каталоге назначения,
// чтобы неудачная установка ничего туда не записала.
type dirLocker struct {
	dir string
}

func newDirLocker(scratchDir string) *dirLocker {
	return &dirLocker{dir: filepath.Join(scratchDir, "locks")}
}

// lockPath возвращает путь lock-файла для каталога назначения.
func (l *dirLocker) lockPath(destDir string) string {
	abs, err := filepath.Abs(destDir)
	if err != nil {
		abs = filepath.Clean(destDir)
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(l.dir, hex.EncodeToString(sum[:8])+".lock")
}

// Lock ждёт lock каталога destDir, пока не отменён ctx.
// Возвращает функцию освобождения.
func (l *dirLocker) Lock(ctx context.Context, destDir string) (func(), error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockDestination, err)
	}

	fileLock := flock.New(l.lockPath(destDir))
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockDestination, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLockDestination, destDir)
	}

	return func() {
		fileLock.Unlock()
	}, nil
}
