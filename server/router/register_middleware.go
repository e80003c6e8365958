// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"codeberg.org/mambo/dashboard/config"
	"codeberg.org/mambo/dashboard/server/middleware"
	"codeberg.org/mambo/dashboard/server/middleware/limiter"
	"codeberg.org/mambo/dashboard/server/middleware/set_request_context"
)

// RegisterMiddleware installs the middleware chain. lim may be nil when
// rate limiting is disabled.
func (router *Router) RegisterMiddleware(lim *limiter.Limiter) {
	// the first middleware is the most outer / first executed one
	if config.Global.Response.Compression {
		router.Use(middleware.Compress())
	}

	router.Use(middleware.WithServerTiming)
	router.Use(middleware.NormalizeURL)                // handle trailing slashes
	router.Use(set_request_context.WithRequestContext) // needed for everything else
	router.Use(middleware.SetResponseHeaders)          // all pages need this

	if lim != nil {
		router.Use(lim.Evaluate)
	}
}
