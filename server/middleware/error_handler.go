// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"bytes"
	"maps"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"codeberg.org/mambo/dashboard/assets/views"
	"codeberg.org/mambo/dashboard/config"
	"codeberg.org/mambo/dashboard/core/audit"
	"codeberg.org/mambo/dashboard/i18n"
	"codeberg.org/mambo/dashboard/server/metrics"
	"codeberg.org/mambo/dashboard/server/request_context"
)

var requestMetrics atomic.Pointer[metrics.Metrics]

// UseMetrics makes CatchError report every completed request to m.
// Passing nil stops reporting.
func UseMetrics(m *metrics.Metrics) {
	requestMetrics.Store(m)
}

// CatchError wraps HTTP handlers that return an error, providing centralized error handling,
// response buffering, and request logging.
//
// The handler's output is buffered in an httptest.ResponseRecorder and any
// returned error is stored in the request context. Then:
//   - If the handler returned an error without writing an error status
//     (status < 400), the buffered response is discarded and a themed
//     500 Internal Server Error page is rendered.
//   - If the handler wrote a 404 Not Found status, the buffered response is
//     also discarded and replaced with the themed error page.
//   - In all other cases the buffered response is written to the client.
//
// Finally, it logs the completed request via the audit package and reports it
// to the metrics registered with UseMetrics.
func CatchError(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		span := audit.Span{
			Kind:      audit.KindRequest,
			RequestID: ctx.RequestID,
			Method:    r.Method,
			URL:       r.URL.String(),
		}

		r = r.WithContext(span.Begin(r.Context()))

		recorder := httptest.NewRecorder()

		// Execute the handler, capturing its output and any returned error.
		ctx.RequestError = handler(recorder, r)

		var length int

		switch {
		case (ctx.RequestError != nil && recorder.Code < http.StatusBadRequest) || recorder.Code == http.StatusNotFound:
			if recorder.Code == http.StatusNotFound {
				ctx.StatusCode = http.StatusNotFound
			} else {
				ctx.StatusCode = http.StatusInternalServerError
			}

			length = WriteErrorPage(w, r, ctx.StatusCode, "")

		default:
			ctx.StatusCode = recorder.Code

			maps.Copy(w.Header(), recorder.Header())
			w.WriteHeader(recorder.Code)

			n, err := recorder.Body.WriteTo(w)
			if err != nil {
				log.Err(err).Str("request_id", ctx.RequestID).Msg("Failed to write response body")
			}

			length = int(n)
		}

		span.End()

		span.StatusCode = ctx.StatusCode
		span.Length = length
		span.Error = ctx.RequestError

		requestMetrics.Load().RecordRequest(r.Method, ctx.StatusCode, length, span.Duration())

		if !config.Global.ShouldSkipServerLogging(r.URL.Path) {
			span.Log()
		}
	}
}

// WriteErrorPage renders the themed error page for statusCode and returns
// the number of body bytes written.
//
// An empty message is replaced by a translated default for statusCode.
func WriteErrorPage(w http.ResponseWriter, r *http.Request, statusCode int, message string) int {
	ctx := r.Context()

	if message == "" {
		message = i18n.Tr(ctx, "An internal error occurred while rendering this page.")
		if statusCode == http.StatusNotFound {
			message = i18n.Tr(ctx, "The page you requested could not be found.")
		}
	}

	data := views.ErrorData{
		PageData: views.PageData{
			Title:   strconv.Itoa(statusCode) + " - " + i18n.Tr(ctx, "Dashboard"),
			RepoURL: config.Global.Instance.RepoURL,
		},
		StatusCode: statusCode,
		Message:    message,
	}

	var buf bytes.Buffer

	if err := views.Error(data).Render(ctx, &buf); err != nil {
		log.Err(err).
			Int("status_code", statusCode).
			Msg("Failed to render the error page")

		buf.Reset()
		buf.WriteString(http.StatusText(statusCode))
	}

	headers := w.Header()
	headers.Set("Content-Type", "text/html; charset=utf-8")
	headers.Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)

	n, err := buf.WriteTo(w)
	if err != nil {
		log.Err(err).Msg("Failed to write error page")
	}

	return int(n)
}
