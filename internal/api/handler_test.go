package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/covconf/internal/config"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupTestRouter(t *testing.T) (http.Handler, *config.Config, *controllableClock) {
	t.Helper()

	profile := config.New(t.TempDir())
	profile.Name = "ci"
	profile.AddExcludedFiles("*/lib.rs")

	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))
	handler := NewHandler(profile, WithClock(clock.Now))
	router := NewRouter(handler, zaptest.NewLogger(t), WithLogging(false))

	return router, profile, clock
}

func doJSON(t *testing.T, router http.Handler, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	if got := requestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %s", got)
	}
	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, _, clock := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestProfileEndpoint(t *testing.T) {
	router, profile, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/profile", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Name             string         `json:"name"`
		Manifest         string         `json:"manifest"`
		BaseDir          string         `json:"baseDir"`
		DefaultOutputDir bool           `json:"defaultOutputDir"`
		Settings         map[string]any `json:"settings"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	wantBase, _ := profile.BaseDir()
	if body.Name != "ci" || body.BaseDir != wantBase || !body.DefaultOutputDir {
		t.Fatalf("unexpected profile response: %+v", body)
	}
	if want := filepath.Join(wantBase, config.DefaultManifestName); body.Manifest != want {
		t.Fatalf("expected manifest %s, got %s", want, body.Manifest)
	}
	if body.Settings["line_coverage"] != true {
		t.Fatalf("expected line_coverage in settings, got %v", body.Settings)
	}
}

func TestProfileEndpointReportsBaseDirFailure(t *testing.T) {
	router, profile, _ := setupTestRouter(t)
	profile.Root = "does-not-exist"

	rec := doJSON(t, router, http.MethodGet, "/api/profile", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestExcludeEndpoint(t *testing.T) {
	router, profile, _ := setupTestRouter(t)
	wd, err := profile.WorkDir()
	if err != nil {
		t.Fatalf("WorkDir returned error: %v", err)
	}

	absolute := filepath.Join(wd, "src", "lib.rs")
	rec := doJSON(t, router, http.MethodPost, "/api/exclude", excludeRequest{
		Paths: []string{absolute, "src/main.rs", "lib.rs"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body excludeResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	want := []exclusionResult{
		{Path: absolute, Relative: filepath.Join("src", "lib.rs"), Excluded: true},
		{Path: "src/main.rs", Relative: "src/main.rs", Excluded: false},
		{Path: "lib.rs", Relative: "lib.rs", Excluded: false},
	}
	if len(body.Results) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(body.Results))
	}
	for i := range want {
		if body.Results[i] != want[i] {
			t.Fatalf("result %d: expected %+v, got %+v", i, want[i], body.Results[i])
		}
	}
}

func TestExcludeEndpointValidatesInput(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/exclude", excludeRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/exclude", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestAddExclusionsEndpoint(t *testing.T) {
	router, profile, clock := setupTestRouter(t)
	clock.Advance(time.Hour)

	rec := doJSON(t, router, http.MethodPost, "/api/exclusions", exclusionsRequest{
		Patterns: []string{"*mod.rs", "  "},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body exclusionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Patterns) != 2 || body.Patterns[1] != "*mod.rs" {
		t.Fatalf("expected appended pattern, got %v", body.Patterns)
	}
	if body.Compiled != 0 {
		t.Fatalf("patterns must compile lazily, got %d compiled", body.Compiled)
	}
	if !body.UpdatedAt.Equal(clock.Now()) {
		t.Fatalf("expected updatedAt %s, got %s", clock.Now(), body.UpdatedAt)
	}

	excluded, err := profile.ExcludePath("src/mod.rs")
	if err != nil || !excluded {
		t.Fatalf("expected new pattern to apply, got %v (%v)", excluded, err)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/exclusions", nil)
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Compiled != 2 {
		t.Fatalf("expected 2 compiled patterns after a query, got %d", body.Compiled)
	}
}

func TestAddExclusionsRejectsEmpty(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/exclusions", exclusionsRequest{Patterns: []string{""}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestConcurrentExclusionQueries(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rec := doJSON(t, router, http.MethodPost, "/api/exclusions", exclusionsRequest{Patterns: []string{"*gen*"}})
			if rec.Code != http.StatusOK {
				t.Errorf("add exclusions: status %d", rec.Code)
			}
		}()
		go func() {
			defer wg.Done()
			rec := doJSON(t, router, http.MethodPost, "/api/exclude", excludeRequest{Paths: []string{"src/lib.rs"}})
			if rec.Code != http.StatusOK {
				t.Errorf("exclude: status %d", rec.Code)
			}
		}()
	}
	wg.Wait()
}
