package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/covconf/internal/api"
	"github.com/eugenenazirov/covconf/internal/config"
)

// ServeConfig holds the settings of the `serve` command.
type ServeConfig struct {
	Addr                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// DefaultServeConfig returns the settings used when no serve flag is given.
func DefaultServeConfig() ServeConfig {
	return ServeConfig{
		Addr:                 ":8080",
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         10 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         200,
		RateLimitBurst:       400,
	}
}

// App encapsulates the application dependencies and HTTP server.
type App struct {
	profile *config.Config
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application for profile with the provided serve settings.
func New(profile *config.Config, cfg ServeConfig, logger *zap.Logger) (*App, error) {
	if profile == nil {
		return nil, errors.New("profile is required")
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := api.NewHandler(profile)
	router := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		profile: profile,
		handler: handler,
		router:  router,
		logger:  logger,
		server:  NewServer(cfg, router),
	}, nil
}

// NewServer creates and configures an HTTP server from the provided settings.
func NewServer(cfg ServeConfig, handler http.Handler) *http.Server {
	addr := cfg.Addr
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.String("profile", a.profile.Name),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}
