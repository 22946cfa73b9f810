package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eugenenazirov/covconf/internal/application"
	"github.com/eugenenazirov/covconf/internal/config"
	"github.com/eugenenazirov/covconf/internal/logging"
)

var signalNotify = signal.Notify

// environment carries the process dependencies of a command run.
type environment struct {
	workDir   string
	stdout    io.Writer
	newLogger func(zapcore.Level) (*zap.Logger, error)
}

func main() {
	env := environment{
		stdout:    os.Stdout,
		newLogger: logging.New,
	}
	if err := run(os.Args[1:], env); err != nil {
		kingpin.Fatalf("%v", err)
	}
}

func run(args []string, env environment) error {
	c := newCLI()
	command, err := c.app.Parse(args)
	if err != nil {
		return err
	}

	logger, err := env.newLogger(logging.Level(c.inputs.Verbose, c.inputs.Debug))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	resolver := config.NewResolver(
		config.WithLogger(logger),
		config.WithWorkDir(env.workDir),
	)
	profile, err := resolver.Resolve(c.inputs)
	if err != nil {
		return fmt.Errorf("failed to resolve configuration: %w", err)
	}

	switch command {
	case c.show.FullCommand():
		return config.Encode(env.stdout, profile, config.Format(c.showFormat))
	case c.check.FullCommand():
		return checkPaths(env.stdout, profile, c.checkPaths)
	case c.serve.FullCommand():
		return serve(profile, c.serveCfg, logger)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// checkPaths prints one tab-separated line per path: the path, its
// base-relative form and whether it is excluded.
func checkPaths(w io.Writer, profile *config.Config, paths []string) error {
	for _, path := range paths {
		relative, err := profile.StripBaseDir(path)
		if err != nil {
			return err
		}
		excluded, err := profile.ExcludePath(path)
		if err != nil {
			return err
		}
		verdict := "included"
		if excluded {
			verdict = "excluded"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", path, relative, verdict); err != nil {
			return err
		}
	}
	return nil
}

func serve(profile *config.Config, cfg application.ServeConfig, logger *zap.Logger) error {
	app, err := application.New(profile, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	if err := app.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	return nil
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
