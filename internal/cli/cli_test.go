package cli

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shaiso/addonloader/internal/config"
)

// --- Client ---

func TestClient_EnqueueInstall(t *testing.T) {
	var got AddonRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/installs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"data":{"correlation_id":"abc"}}`))
	}))
	defer server.Close()

	id, err := NewClient(server.URL).EnqueueInstall(AddonRequest{
		AddonToken:      "aptechka",
		AddonsDirectory: "/wow/Interface/AddOns",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != "abc" {
		t.Errorf("expected correlation id abc, got %q", id)
	}
	if got.AddonToken != "aptechka" || got.AddonsDirectory != "/wow/Interface/AddOns" {
		t.Errorf("unexpected request body %+v", got)
	}
}

func TestClient_ListInstalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("stage") != "FAILED" || r.URL.Query().Get("limit") != "5" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data":[{"id":"1","stage":"FAILED","request":{"addon_token":"aptechka"},
			"outcome":{"correlation_id":"abc","failed":true,"error":{"stage":"UNPACKING","message":"denied"}}}],"total":1}`))
	}))
	defer server.Close()

	installs, err := NewClient(server.URL).ListInstalls(ListInstallsOpts{Stage: "FAILED", Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(installs) != 1 {
		t.Fatalf("expected 1 install, got %d", len(installs))
	}
	in := installs[0]
	if !in.Outcome.Failed || in.Outcome.Error == nil || in.Outcome.Error.Stage != "UNPACKING" {
		t.Errorf("unexpected outcome %+v", in.Outcome)
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"install not found"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetInstall("missing")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Code != "NOT_FOUND" {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestClient_SetScheduleEnabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/schedules/s1/enabled" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]bool
		json.NewDecoder(r.Body).Decode(&body)
		if body["enabled"] {
			t.Error("expected enabled=false")
		}
		w.Write([]byte(`{"data":{"id":"s1","enabled":false,"timezone":"UTC"}}`))
	}))
	defer server.Close()

	s, err := NewClient(server.URL).SetScheduleEnabled("s1", false)
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != "s1" || s.Enabled {
		t.Errorf("unexpected schedule %+v", s)
	}
}

func TestClient_DeleteSchedule(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := NewClient(server.URL).DeleteSchedule("s1"); err != nil {
		t.Fatal(err)
	}
}

// --- Output ---

func TestOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutputTo(false, &buf, io.Discard)

	out.Print([]string{"ID", "NAME"}, [][]string{{"1", "aptechka"}}, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header, dashes and one row, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "--") {
		t.Errorf("expected dashes line, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "aptechka") {
		t.Errorf("expected row, got %q", lines[2])
	}
}

func TestOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	out := NewOutputTo(true, &buf, io.Discard)

	out.Print([]string{"ID"}, [][]string{{"1"}}, map[string]string{"id": "1"})

	var got map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["id"] != "1" {
		t.Errorf("unexpected output %v", got)
	}
}

// --- install / resolve ---

const listingPage = `<table class="listing-project-file">
<tr><th>Type</th></tr>
<tr><td>R</td><td>release</td><td>1 MB</td><td>x</td><td>8.2.0</td><td>1</td><td><a href="/download/123">Download</a></td></tr>
</table>`

func addonSite(t *testing.T, archive []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /wow/addons/aptechka/files", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(listingPage))
	})
	mux.HandleFunc("GET /download/123/file", func(w http.ResponseWriter, _ *http.Request) {
		w.Write(archive)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func addonZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("Aptechka/Aptechka.toc")
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte("## Title: Aptechka"))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testConfig(t *testing.T) func() config.Config {
	cfg := config.Default()
	cfg.ScratchDir = t.TempDir()
	return func() config.Config { return cfg }
}

func TestInstallCmd_Success(t *testing.T) {
	server := addonSite(t, addonZip(t))
	dest := filepath.Join(t.TempDir(), "AddOns")

	var stdout bytes.Buffer
	cmd := NewInstallCmd(testConfig(t), func() *Output { return NewOutputTo(false, &stdout, io.Discard) })
	cmd.SetErr(io.Discard)
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"aptechka", "--dir", dest, "--origin", server.URL, "--correlation-id", "abc"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("install failed: %v", err)
	}

	if got := strings.TrimSpace(stdout.String()); got != `{"correlation_id":"abc","failed":false,"data":{}}` {
		t.Errorf("unexpected outcome %s", got)
	}
	if _, err := os.Stat(filepath.Join(dest, "Aptechka", "Aptechka.toc")); err != nil {
		t.Errorf("addon not installed: %v", err)
	}
}

func TestInstallCmd_FailureExitsWithError(t *testing.T) {
	server := addonSite(t, []byte("not a zip"))
	dest := filepath.Join(t.TempDir(), "AddOns")

	var stdout bytes.Buffer
	cmd := NewInstallCmd(testConfig(t), func() *Output { return NewOutputTo(false, &stdout, io.Discard) })
	cmd.SetErr(io.Discard)
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"aptechka", "--dir", dest, "--origin", server.URL, "--correlation-id", "abc"})

	err := cmd.Execute()
	if !errors.Is(err, ErrInstallFailed) {
		t.Fatalf("expected ErrInstallFailed, got %v", err)
	}

	var outcome struct {
		CorrelationID string `json:"correlation_id"`
		Failed        bool   `json:"failed"`
		Error         struct {
			Stage string `json:"stage"`
		} `json:"error"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &outcome); err != nil {
		t.Fatalf("outcome is not JSON: %v (%q)", err, stdout.String())
	}
	if !outcome.Failed || outcome.Error.Stage != "UNPACKING" || outcome.CorrelationID != "abc" {
		t.Errorf("unexpected outcome %+v", outcome)
	}
}

func TestResolveCmd(t *testing.T) {
	server := addonSite(t, nil)

	var stdout bytes.Buffer
	cmd := NewResolveCmd(testConfig(t), func() *Output { return NewOutputTo(true, &stdout, io.Discard) })
	cmd.SetErr(io.Discard)
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"aptechka", "--origin", server.URL})

	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	var got map[string]string
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if want := server.URL + "/download/123/file"; got["download_url"] != want {
		t.Errorf("expected %s, got %s", want, got["download_url"])
	}
}

func TestResolveCmd_RequiresAddon(t *testing.T) {
	cmd := NewResolveCmd(testConfig(t), func() *Output { return NewOutputTo(false, io.Discard, io.Discard) })
	cmd.SetErr(io.Discard)
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error without token, title or url")
	}
}
