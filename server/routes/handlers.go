// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package routes holds the HTTP handlers of the dashboard.

Handlers return an error and are adapted by middleware.CatchError, which
turns unhandled errors into the themed error page.
*/
package routes

import (
	"net/http"
	"strings"

	"codeberg.org/mambo/dashboard/config"
	"codeberg.org/mambo/dashboard/i18n"
	"codeberg.org/mambo/dashboard/server/render"
)

// Handlers carries the dependencies shared by the route handlers.
type Handlers struct {
	Renderer *render.Renderer
}

// New returns the route handlers backed by renderer.
func New(renderer *render.Renderer) *Handlers {
	return &Handlers{Renderer: renderer}
}

// setLocalizedCacheHeaders marks a response as public but varying with the
// inputs of locale negotiation.
//
// A response that sets a cookie stays private.
func setLocalizedCacheHeaders(w http.ResponseWriter, r *http.Request) {
	headers := w.Header()

	headers.Set("Content-Language", i18n.TagFrom(r.Context()).String())
	headers.Add("Vary", "Accept-Language, Cookie")

	if persistLocale(w, r) {
		headers.Set("Cache-Control", "private, no-cache")

		return
	}

	headers.Set("Cache-Control", config.Global.CacheControl())
}

// persistLocale stores an explicit ?lang= choice in the language cookie so
// later visits keep it. lang=auto clears the cookie.
//
// It reports whether a cookie was written.
func persistLocale(w http.ResponseWriter, r *http.Request) bool {
	q := r.URL.Query().Get(i18n.LangParam)
	if q == "" {
		return false
	}

	cookie := &http.Cookie{
		Name:     i18n.LangCookie,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	if strings.EqualFold(q, "auto") {
		cookie.MaxAge = -1
	} else {
		cookie.Value = i18n.TagFrom(r.Context()).String()
		cookie.MaxAge = cookieMaxAge
	}

	http.SetCookie(w, cookie)

	return true
}

// cookieMaxAge is one year in seconds.
const cookieMaxAge = 365 * 24 * 60 * 60
