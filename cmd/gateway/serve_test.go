package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"africa-gateway/internal/logging"
)

func TestNewApp_ServesHealthThroughMiddlewareChain(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("RATE_STATS_ENABLED", "false")
	t.Setenv("BOUNDARY_STORE_PATH", filepath.Join(t.TempDir(), "boundaries.db"))

	cfg, err := readConfig("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	a, err := newApp(context.Background(), cfg, logging.Noop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.close()

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header from requestlog middleware")
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected health body: %v", body)
	}

	w = httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func TestSnapshotCommand_WritesLiveDataset(t *testing.T) {
	const payload = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"ISO_A2":"KE","CONTINENT":"Africa"},"geometry":null}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	t.Setenv("NATURAL_EARTH_URL", srv.URL+"/countries.geojson")
	out := filepath.Join(t.TempDir(), "countries.geojson")

	root := newRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{CmdSnapshot, "--" + FlagOut, out})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if string(got) != payload {
		t.Fatalf("snapshot content mismatch: %s", got)
	}
	if !bytes.Contains(stdout.Bytes(), []byte("wrote 1 features")) {
		t.Fatalf("unexpected output: %q", stdout.String())
	}
}

func TestSnapshotCommand_UpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	t.Setenv("NATURAL_EARTH_URL", srv.URL)
	out := filepath.Join(t.TempDir(), "countries.geojson")

	root := newRootCmd()
	root.SetArgs([]string{CmdSnapshot, "--" + FlagOut, out})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected error when upstream fails")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("no file must be written on failure")
	}
}
