package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFetch_Success(t *testing.T) {
	payload := strings.Repeat("zipdata", 1024)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Write([]byte(payload))
	}))
	defer server.Close()

	scratch := filepath.Join(t.TempDir(), "scratch")
	f := New(Config{})

	archive, err := f.Fetch(context.Background(), server.URL+"/download/123/file", "Aptechka", scratch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if archive.Size != int64(len(payload)) {
		t.Errorf("expected size %d, got %d", len(payload), archive.Size)
	}
	if filepath.Dir(archive.Path) != scratch {
		t.Errorf("archive should be inside scratch dir, got %s", archive.Path)
	}
	if !strings.HasPrefix(filepath.Base(archive.Path), "Aptechka-") || !strings.HasSuffix(archive.Path, ".zip") {
		t.Errorf("unexpected archive name %s", archive.Path)
	}

	data, err := os.ReadFile(archive.Path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if string(data) != payload {
		t.Error("archive content mismatch")
	}

	// временный .part файл не должен оставаться
	if _, err := os.Stat(archive.Path + partExt); !os.IsNotExist(err) {
		t.Error(".part file should not exist")
	}
}

func TestFetch_UniqueNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	scratch := t.TempDir()
	f := New(Config{})

	a, err := f.Fetch(context.Background(), server.URL, "Same", scratch)
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.Fetch(context.Background(), server.URL, "Same", scratch)
	if err != nil {
		t.Fatal(err)
	}
	if a.Path == b.Path {
		t.Error("two fetches with the same title must not share a file")
	}
}

func TestFetch_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	scratch := t.TempDir()

	_, err := New(Config{}).Fetch(context.Background(), server.URL, "x", scratch)
	if !errors.Is(err, ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}

	entries, _ := os.ReadDir(scratch)
	if len(entries) != 0 {
		t.Errorf("scratch dir should be empty, got %d entries", len(entries))
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(Config{}).Fetch(context.Background(), url, "x", t.TempDir())
	if !errors.Is(err, ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}
}

func TestFetch_TruncatedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// обещаем больше байт, чем отдаём — клиент получит unexpected EOF
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("short"))
	}))
	defer server.Close()

	scratch := t.TempDir()

	_, err := New(Config{}).Fetch(context.Background(), server.URL, "x", scratch)
	if !errors.Is(err, ErrTransfer) {
		t.Fatalf("expected ErrTransfer, got %v", err)
	}

	entries, _ := os.ReadDir(scratch)
	if len(entries) != 0 {
		t.Errorf("partial file should be removed, got %d entries", len(entries))
	}
}

func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write([]byte("late"))
	}))
	defer server.Close()

	f := New(Config{Timeout: 100 * time.Millisecond})

	_, err := f.Fetch(context.Background(), server.URL, "x", t.TempDir())
	if !errors.Is(err, ErrTransfer) {
		t.Fatalf("expected ErrTransfer on timeout, got %v", err)
	}
}

func TestFetch_ScratchNotWritable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	// scratch "каталог" внутри обычного файла создать нельзя
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := New(Config{}).Fetch(context.Background(), server.URL, "x", filepath.Join(blocker, "scratch"))
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Aptechka", "Aptechka"},
		{"Deadly Boss Mods", "Deadly_Boss_Mods"},
		{"../../etc/passwd", "_.._etc_passwd"},
		{"", "addon"},
		{"...", "addon"},
	}

	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := sanitize(strings.Repeat("a", 200))
	if len(long) != maxNameLen {
		t.Errorf("expected name truncated to %d, got %d", maxNameLen, len(long))
	}
}
