// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Dashboard serves the header of the Mambo Investing trading decision
dashboard, both as a full page and as an embeddable HTML fragment.
*/
package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"codeberg.org/mambo/dashboard/config"
	"codeberg.org/mambo/dashboard/core/audit"
	"codeberg.org/mambo/dashboard/i18n"
	"codeberg.org/mambo/dashboard/server/assets"
	"codeberg.org/mambo/dashboard/server/metrics"
	"codeberg.org/mambo/dashboard/server/middleware"
	"codeberg.org/mambo/dashboard/server/middleware/limiter"
	"codeberg.org/mambo/dashboard/server/render"
	"codeberg.org/mambo/dashboard/server/router"
	"codeberg.org/mambo/dashboard/server/routes"
)

const (
	// Values for http.Server timeouts.
	// ref: gosec: G112
	readHeaderTimeout time.Duration = 15 * time.Second
	readTimeout       time.Duration = 15 * time.Second
	writeTimeout      time.Duration = 10 * time.Second
	idleTimeout       time.Duration = 30 * time.Second

	serverShutdownDeadline time.Duration = 5 * time.Second
)

var errChmodSocket = errors.New("failed to change unix socket permissions")

// embeddedContent holds our static web server content.
//
//go:embed assets/css assets/robots.txt
var embeddedContent embed.FS

//nolint:gochecknoinits
func init() {
	assets.FS = embeddedContent
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Application failed")
	}
}

// run orchestrates the application startup and graceful shutdown.
//
//nolint:funlen
func run() error {
	audit.SetDefaultLogger()

	if err := config.Global.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := i18n.Setup(); err != nil {
		return fmt.Errorf("failed to initialize i18n engine: %w", err)
	}

	log.Info().
		Str("default_locale", i18n.DefaultTag().String()).
		Msg("Initialized i18n engine")

	handler, lim, err := newHandler()
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	listener, err := chooseListener()
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownDeadline)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}

		return nil
	})

	if lim != nil {
		g.Go(func() error {
			return lim.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Msg("Server exited gracefully")

	return nil
}

// newHandler builds the fully wired router. The returned limiter is nil when
// rate limiting is disabled.
func newHandler() (http.Handler, *limiter.Limiter, error) {
	var (
		m   *metrics.Metrics
		err error
	)

	if config.Global.Metrics.Enabled {
		m, err = metrics.NewDefault()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}

		middleware.UseMetrics(m)
	}

	renderer, err := render.New(render.Options{
		CacheEnabled:  config.Global.Cache.Enabled,
		CacheSize:     config.Global.Cache.Size,
		CacheCompress: config.Global.Cache.Compress,
		Metrics:       m,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize renderer: %w", err)
	}

	var lim *limiter.Limiter

	if config.Global.Limiter.Enabled {
		lim, err = limiter.New(limiter.OptionsFromConfig(&config.Global, m))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize limiter: %w", err)
		}
	}

	r := router.NewRouter()

	if err := r.DefineRoutes(routes.New(renderer), m); err != nil {
		return nil, nil, fmt.Errorf("failed to define routes: %w", err)
	}

	r.RegisterMiddleware(lim)

	return r, lim, nil
}

func chooseListener() (net.Listener, error) {
	if config.Global.Basic.UnixSocket != "" {
		unixAddr := config.Global.Basic.UnixSocket

		unixListener, err := (&net.ListenConfig{}).Listen(context.Background(), "unix", unixAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to start Unix socket listener on %v: %w", unixAddr, err)
		}

		if err := os.Chmod(unixAddr, config.Global.Basic.UnixSocketPermissions); err != nil {
			_ = unixListener.Close()

			return nil, fmt.Errorf("%w: %w", errChmodSocket, err)
		}

		log.Info().
			Str("address", unixAddr).
			Msg("Listening on Unix domain socket")

		return unixListener, nil
	}

	addr := net.JoinHostPort(config.Global.Basic.Host, config.Global.Basic.Port)

	tcpListener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start TCP listener on %v: %w", addr, err)
	}

	addr = tcpListener.Addr().String()

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		_ = tcpListener.Close()

		return nil, fmt.Errorf("failed to parse listener address %q: %w", addr, err)
	}

	log.Info().
		Str("address", addr).
		Str("url", fmt.Sprintf("http://localhost:%v/", port)).
		Msg("Listening on address")

	return tcpListener, nil
}
