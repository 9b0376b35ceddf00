package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/config"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/ledger"
)

type stubLauncher struct {
	launched atomic.Int32
}

func (s *stubLauncher) RunBatch(ctx context.Context, adsorbates []string) (string, error) {
	s.launched.Add(1)
	return "stub-run", nil
}

func newTestServer(t *testing.T, auth string) (*Server, *ledger.Ledger, *stubLauncher) {
	t.Helper()

	l, err := ledger.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	launcher := &stubLauncher{}
	srv := NewServer(l, launcher, nil, config.WebConfig{Port: 0, Auth: auth}, "test")
	return srv, l, launcher
}

func (s *Server) testHandler() http.Handler {
	mux := http.NewServeMux()
	s.registerAPI(mux)
	return s.withMiddleware(mux)
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.testHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestListRunsEmptyIsArray(t *testing.T) {
	srv, _, _ := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.testHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/runs", nil))

	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("empty run list: got %q, want []", got)
	}
}

func TestGetRunAndItems(t *testing.T) {
	srv, l, _ := newTestServer(t, "")
	handler := srv.testHandler()

	run := &ledger.Run{ID: "r1", BaseDir: "Adsorbates", Workers: 2, Total: 1}
	if err := l.CreateRun(run); err != nil {
		t.Fatalf("create run: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/runs/r1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get run: %d", rec.Code)
	}
	var got ledger.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "r1" || got.Status != "running" {
		t.Errorf("unexpected run: %+v", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/runs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing run: got %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/runs/r1/items", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("run items: %d", rec.Code)
	}
}

func TestCreateRunLaunchesInBackground(t *testing.T) {
	srv, _, launcher := newTestServer(t, "")

	body := strings.NewReader(`{"adsorbates": ["CO", "OH"]}`)
	rec := httptest.NewRecorder()
	srv.testHandler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/runs", body))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status: got %d, want 202", rec.Code)
	}

	deadline := time.Now().Add(2 * time.Second)
	for launcher.launched.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("launcher was never invoked")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCreateRunRejectsEmptyList(t *testing.T) {
	srv, _, launcher := newTestServer(t, "")

	rec := httptest.NewRecorder()
	srv.testHandler().ServeHTTP(rec, httptest.NewRequest("POST", "/api/runs", strings.NewReader(`{}`)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
	if launcher.launched.Load() != 0 {
		t.Error("launcher invoked for empty list")
	}
}

func TestBasicAuth(t *testing.T) {
	srv, _, _ := newTestServer(t, "hunter2")
	handler := srv.testHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/runs", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: got %d, want 401", rec.Code)
	}

	req := httptest.NewRequest("GET", "/api/runs", nil)
	req.SetBasicAuth("", "hunter2")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid credentials: got %d, want 200", rec.Code)
	}

	// Health stays public for probes.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health with auth enabled: got %d, want 200", rec.Code)
	}
}
