package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"staticcms/app/internal/app/bootstrap"
	"staticcms/app/internal/auth"
	"staticcms/app/internal/config"
	applog "staticcms/app/internal/log"
)

const readHeaderTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "staticcms: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return eris.Wrap(err, "loading .env")
	}

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:          cfg.SentryDSN,
		Environment:  cfg.Environment,
		ScrubCookies: []string{auth.CookieName},
	})
	if err != nil {
		return eris.Wrap(err, "initialising sentry")
	}
	defer flush()

	app, err := bootstrap.Build(ctx, bootstrap.Dependencies{
		Config:    *cfg,
		Logger:    logger,
		SentryHub: sentryHub,
	})
	if err != nil {
		return eris.Wrap(err, "bootstrapping application")
	}
	defer func() {
		if closeErr := app.Cleanup(); closeErr != nil {
			logger.WithError(closeErr).Error("releasing resources")
		}
	}()

	server := &stdhttp.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort),
		Handler:           app.HTTPServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return serve(ctx, server, cfg.ShutdownGrace, logger)
}

// serve runs server until ctx is cancelled, then drains in-flight requests for
// at most grace.
func serve(ctx context.Context, server *stdhttp.Server, grace time.Duration, logger *logrus.Logger) error {
	entry := logger.WithFields(logrus.Fields{"component": "server", "addr": server.Addr})
	entry.Info("starting http server")

	listenErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			listenErr <- err
		}
		close(listenErr)
	}()

	select {
	case err, failed := <-listenErr:
		if failed {
			return eris.Wrap(err, "http server stopped")
		}
		return nil
	case <-ctx.Done():
		entry.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}

	entry.WithField("grace", grace.String()).Info("http server shut down cleanly")
	return nil
}
