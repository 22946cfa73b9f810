package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/eugenenazirov/covconf/internal/config"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const maxPathsPerRequest = 10_000

// Handler answers profile queries for one resolved configuration.
type Handler struct {
	profile *config.Config

	clock func() time.Time

	mu                  sync.RWMutex
	exclusionsUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler serving profile.
func NewHandler(profile *config.Config, opts ...HandlerOption) *Handler {
	h := &Handler{
		profile: profile,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.exclusionsUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	})
}

func (h *Handler) handleProfile(w http.ResponseWriter, _ *http.Request) {
	baseDir, err := h.profile.BaseDir()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	manifest, err := h.profile.ManifestPath()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Name:               h.profile.Name,
		ConfigFile:         h.profile.ConfigFile,
		Manifest:           manifest,
		BaseDir:            baseDir,
		Coveralls:          h.profile.IsCoveralls(),
		DefaultOutputDir:   h.profile.IsDefaultOutputDir(),
		CompiledExclusions: h.profile.CompiledExclusions(),
		Settings:           config.Snapshot(h.profile),
	})
}

func (h *Handler) handleExclude(w http.ResponseWriter, r *http.Request) {
	var req excludeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}
	if len(req.Paths) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "paths must contain at least one path")
		return
	}
	if len(req.Paths) > maxPathsPerRequest {
		writeError(w, http.StatusRequestEntityTooLarge, "Too many paths", "split the query into smaller batches")
		return
	}

	results := make([]exclusionResult, 0, len(req.Paths))
	for _, path := range req.Paths {
		relative, err := h.profile.StripBaseDir(path)
		if err != nil {
			writeInternalError(w, err)
			return
		}
		excluded, err := h.profile.ExcludePath(path)
		if err != nil {
			writeInternalError(w, err)
			return
		}
		results = append(results, exclusionResult{
			Path:     path,
			Relative: relative,
			Excluded: excluded,
		})
	}

	writeJSON(w, http.StatusOK, excludeResponse{Results: results})
}

func (h *Handler) handleGetExclusions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, exclusionsResponse{
		Patterns:  h.profile.ExcludedFiles(),
		Compiled:  h.profile.CompiledExclusions(),
		UpdatedAt: h.currentExclusionsUpdatedAt(),
	})
}

func (h *Handler) handleAddExclusions(w http.ResponseWriter, r *http.Request) {
	var req exclusionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	patterns := make([]string, 0, len(req.Patterns))
	for _, p := range req.Patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		patterns = append(patterns, p)
	}
	if len(patterns) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid patterns", "patterns must contain at least one non-empty pattern")
		return
	}

	h.profile.AddExcludedFiles(patterns...)
	h.markExclusionsUpdated()

	writeJSON(w, http.StatusOK, exclusionsResponse{
		Patterns:  h.profile.ExcludedFiles(),
		Compiled:  h.profile.CompiledExclusions(),
		UpdatedAt: h.currentExclusionsUpdatedAt(),
		Message:   "Exclusion patterns added",
	})
}

func (h *Handler) currentExclusionsUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.exclusionsUpdatedAt
}

func (h *Handler) markExclusionsUpdated() {
	h.mu.Lock()
	h.exclusionsUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type excludeRequest struct {
	Paths []string `json:"paths"`
}

type exclusionResult struct {
	Path     string `json:"path"`
	Relative string `json:"relative"`
	Excluded bool   `json:"excluded"`
}

type excludeResponse struct {
	Results []exclusionResult `json:"results"`
}

type exclusionsRequest struct {
	Patterns []string `json:"patterns"`
}

type exclusionsResponse struct {
	Patterns  []string  `json:"patterns"`
	Compiled  int       `json:"compiled"`
	UpdatedAt time.Time `json:"updatedAt"`
	Message   string    `json:"message,omitempty"`
}

type profileResponse struct {
	Name               string `json:"name"`
	ConfigFile         string `json:"configFile,omitempty"`
	Manifest           string `json:"manifest"`
	BaseDir            string `json:"baseDir"`
	Coveralls          bool   `json:"coveralls"`
	DefaultOutputDir   bool   `json:"defaultOutputDir"`
	CompiledExclusions int    `json:"compiledExclusions"`
	Settings           any    `json:"settings"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{
		Error:   message,
		Details: details,
	})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
