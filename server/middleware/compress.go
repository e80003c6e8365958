// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
)

// compressMinSize skips compression for responses too small to benefit.
const compressMinSize = 512

// Compress returns a middleware that gzip-encodes responses for clients
// that accept it.
//
// If the gzip wrapper cannot be built, responses are sent uncompressed.
func Compress() Middleware {
	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(compressMinSize),
		gzhttp.ContentTypes([]string{
			"text/html",
			"text/css",
			"text/plain",
			"application/openmetrics-text",
		}),
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create compression wrapper, responses will be sent uncompressed")

		return func(w http.ResponseWriter, r *http.Request, next http.Handler) {
			next.ServeHTTP(w, r)
		}
	}

	return func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		wrapper(next).ServeHTTP(w, r)
	}
}
