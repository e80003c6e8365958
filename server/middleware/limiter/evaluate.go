// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/mambo/dashboard/i18n"
	"codeberg.org/mambo/dashboard/server/middleware"
)

// Rate limiting header names.
//
// ref: https://www.ietf.org/archive/id/draft-polli-ratelimit-headers-02.html
const (
	HeaderRateLimitLimit     string = "RateLimit-Limit"
	HeaderRateLimitRemaining string = "RateLimit-Remaining"
	HeaderRateLimitReset     string = "RateLimit-Reset"
	HeaderRateLimitStatus    string = "RateLimit-Status" // Non-standard.
)

// Rejection reasons, used as the metrics label.
const (
	reasonBlockList = "block_list"
	reasonRate      = "rate"
)

// Evaluate is the limiter middleware.
//
// Checks run in order: excluded paths, pass list, block list, header
// classification and finally the network's token bucket.
func (l *Limiter) Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if l.isExcludedPath(r.URL.Path) {
		next.ServeHTTP(w, r)

		return
	}

	addr, ok := getClientIP(r)
	if !ok {
		log.Debug().
			Str("remote_addr", r.RemoteAddr).
			Msg("Could not determine client IP, skipping limiter")
		next.ServeHTTP(w, r)

		return
	}

	if ipMatchesList(addr, l.passList) {
		next.ServeHTTP(w, r)

		return
	}

	network := getNetwork(addr, l.opts.IPv4Prefix, l.opts.IPv6Prefix)

	if ipMatchesList(addr, l.blockList) {
		log.Warn().
			Str("ip", addr.String()).
			Str("network", network.String()).
			Msg("Request blocked, IP in block-list")

		l.metrics.RecordLimiterRejection(reasonBlockList)
		middleware.WriteErrorPage(w, r, http.StatusForbidden,
			i18n.Tr(r.Context(), "Access from your network has been blocked."))

		return
	}

	suspicious := false

	if l.opts.CheckHeaders {
		if reason := blockedByHeaders(r); reason != "" {
			log.Debug().
				Str("ip", addr.String()).
				Str("reason", reason).
				Msg("Request marked suspicious by headers")

			suspicious = true
		}
	}

	d := l.take(network, suspicious)
	addRateLimitHeaders(w, d)

	if !d.allowed {
		log.Warn().
			Str("ip", addr.String()).
			Str("network", network.String()).
			Bool("suspicious", d.suspicious).
			Msg("Request blocked, exceeded rate limit")

		l.metrics.RecordLimiterRejection(reasonRate)
		middleware.WriteErrorPage(w, r, http.StatusTooManyRequests,
			i18n.Tr(r.Context(), "Too many requests. Please slow down."))

		return
	}

	next.ServeHTTP(w, r)
}

func (l *Limiter) isExcludedPath(path string) bool {
	for _, prefix := range l.opts.ExcludedPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

// addRateLimitHeaders adds rate limiting information to the response headers.
func addRateLimitHeaders(w http.ResponseWriter, d decision) {
	headers := w.Header()
	reset := strconv.FormatInt(d.resetAfter, 10)

	headers.Set(HeaderRateLimitLimit, strconv.Itoa(d.limit))
	headers.Set(HeaderRateLimitRemaining, strconv.Itoa(d.remaining))
	headers.Set(HeaderRateLimitReset, reset)

	if !d.allowed {
		headers.Set("Retry-After", reset)
	}

	status := "Normal"
	if d.suspicious {
		status = "Suspicious"
	}

	headers.Set(HeaderRateLimitStatus, status)
	headers.Add("Vary", "User-Agent")
}
