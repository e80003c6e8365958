// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/pprof"

	"codeberg.org/mambo/dashboard/config"
	"codeberg.org/mambo/dashboard/server/assets"
	"codeberg.org/mambo/dashboard/server/metrics"
	"codeberg.org/mambo/dashboard/server/middleware"
	"codeberg.org/mambo/dashboard/server/routes"
)

// DefineRoutes registers every route of the dashboard on router.
//
// m may be nil, in which case no metrics endpoint is exposed.
func (router *Router) DefineRoutes(handlers *routes.Handlers, m *metrics.Metrics) error {
	fileServerHandler, err := fileServer()
	if err != nil {
		return err
	}

	// Static assets. Patterns ending in "/" are prefix matches.
	router.Handle("GET /robots.txt", fileServerHandler)
	router.Handle("GET /css/", fileServerHandler)

	// /{$} matches only the root path
	router.HandleFunc("GET /{$}", middleware.CatchError(handlers.IndexPage))
	router.HandleFunc("GET /components/header", middleware.CatchError(handlers.HeaderFragment))
	router.HandleFunc("GET /healthz", middleware.CatchError(routes.Healthz))

	if config.Global.Metrics.Enabled && m != nil {
		router.Handle("GET "+config.Global.Metrics.Path, m.Handler())
	}

	if config.Global.Development.InDevelopment {
		registerDebugRoutes(router)
	}

	// Everything else is a themed 404.
	router.HandleFunc("/", middleware.CatchError(routes.NotFound))

	return nil
}

var errAssetsNotSet = errors.New("embedded assets are not set")

// fileServer serves static files from the embedded assets.
func fileServer() (http.Handler, error) {
	if assets.FS == nil {
		return nil, errAssetsNotSet
	}

	staticContentFS, err := fs.Sub(assets.FS, "assets")
	if err != nil {
		return nil, fmt.Errorf("failed to create sub-filesystem for embedded 'assets' directory: %w", err)
	}

	fileServer := http.FileServer(http.FS(staticContentFS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// go:embed content only changes with a rebuild, so a per-instance id is a strong ETag.
		// ref: https://www.rfc-editor.org/rfc/rfc9110#weak.and.strong.validators
		w.Header().Set("ETag", `"`+config.Global.Instance.FileServerCacheID+`"`)
		fileServer.ServeHTTP(w, r)
	}), nil
}

func registerDebugRoutes(router *Router) {
	router.HandleFunc("GET /debug/pprof/", pprof.Index)
	router.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	router.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
}
