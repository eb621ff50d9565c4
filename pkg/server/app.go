package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"MoneyPulse/internal/usecase"
	"MoneyPulse/pkg/config"
	xhttp "MoneyPulse/pkg/http"
	applogger "MoneyPulse/pkg/logger"
)

// Closer is released on shutdown in reverse registration order.
type Closer interface {
	Close() error
}

// App encapsulates the application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	pipeline    *usecase.Pipeline
	acquirer    *usecase.Acquirer
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	closers     []Closer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.Pipeline,
	acquirer *usecase.Acquirer,
	handler xhttp.Handler,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:         cfg,
		log:         log,
		pipeline:    pipeline,
		acquirer:    acquirer,
		httpHandler: handler,
	}
}

// AddCloser registers a resource to release on shutdown.
func (a *App) AddCloser(c Closer) {
	if c != nil {
		a.closers = append(a.closers, c)
	}
}

// Pipeline exposes the analytics pipeline for one-shot commands.
func (a *App) Pipeline() *usecase.Pipeline { return a.pipeline }

// Logger returns the application logger.
func (a *App) Logger() *applogger.Logger { return a.log }

// Run starts the HTTP server and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
		xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold),
		xhttp.WithMetricsPath(metricsPath),
	)

	if a.acquirer != nil {
		for provider, err := range a.acquirer.Probe(ctx) {
			if err != nil {
				a.log.Warn("provider unreachable at startup, fallback data may be served",
					applogger.String("provider", provider), applogger.Error(err))
			}
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		_ = a.Close()
		return err
	}
	a.log.Info("moneypulse started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("env", a.cfg.Environment))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops the server and releases resources.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	err := a.Close()
	a.log.Info("shutdown complete")
	return err
}

// Close releases registered resources. It is safe to call once after one-shot commands.
func (a *App) Close() error {
	a.log.RemoveCollector()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn("close error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
