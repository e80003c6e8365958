// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net/http"
	"path"
	"slices"
	"strings"
)

var (
	// acceptedEncodings lists content codings of which a user agent must accept at least one.
	acceptedEncodings = []string{"identity", "gzip", "deflate", "br", "zstd"}

	// requiredSecFetchHeaders lists Fetch Metadata Request Headers that browsers send in secure contexts.
	requiredSecFetchHeaders = []string{
		"Sec-Fetch-Dest",
		"Sec-Fetch-Mode",
		"Sec-Fetch-Site",
	}

	// botSubstrings lists lowercase substrings that identify known bots or non-browser clients.
	botSubstrings = []string{
		"ahrefsbot",
		"baiduspider",
		"bingbot",
		"curl",
		"go-http-client",
		"googlebot",
		"headlesschrome",
		"httpclient",
		"java",
		"libwww-perl",
		"mj12bot",
		"okhttp",
		"petalbot",
		"python",
		"scrapy",
		"semrushbot",
		"sogou",
		"wget",
		"yandexbot",
	}

	// acceptRules maps a file extension to the MIME types a browser asks for.
	// Paths without a listed extension are pages and need text/html.
	acceptRules = map[string][]string{
		".css": {"text/css"},
		".txt": {"text/plain"},
	}
)

// blockedByHeaders evaluates a subset of HTTP request headers and reports why
// the request looks automated. It returns an empty string when the request
// appears to come from a browser.
func blockedByHeaders(r *http.Request) string {
	userAgent := strings.ToLower(r.Header.Get("User-Agent"))
	if userAgent == "" {
		return "missing User-Agent header"
	}

	for _, sub := range botSubstrings {
		if strings.Contains(userAgent, sub) {
			return "known bot User-Agent"
		}
	}

	if reason := checkAcceptHeader(r.URL.Path, r.Header.Get("Accept")); reason != "" {
		return reason
	}

	acceptEncoding := strings.ToLower(r.Header.Get("Accept-Encoding"))
	if !slices.ContainsFunc(acceptedEncodings, func(enc string) bool { return strings.Contains(acceptEncoding, enc) }) {
		return "unsupported Accept-Encoding header"
	}

	if strings.TrimSpace(r.Header.Get("Accept-Language")) == "" {
		return "missing Accept-Language header"
	}

	// A real browser may omit Sec-Fetch-* over plain HTTP.
	if isConnectionSecure(r) {
		for _, name := range requiredSecFetchHeaders {
			if r.Header.Get(name) == "" {
				return "missing " + name + " header"
			}
		}
	}

	return ""
}

// checkAcceptHeader reports a mismatch between the Accept header and the resource at urlPath.
func checkAcceptHeader(urlPath, accept string) string {
	if accept == "" {
		return "missing Accept header"
	}

	if strings.Contains(accept, "*/*") {
		return ""
	}

	required, ok := acceptRules[strings.ToLower(path.Ext(urlPath))]
	if !ok {
		required = []string{"text/html"}
	}

	for _, mime := range required {
		if strings.Contains(accept, mime) {
			return ""
		}
	}

	return "Accept header lacks " + strings.Join(required, " or ")
}

// isConnectionSecure reports whether the client reached us over HTTPS,
// directly or through a proxy that sets X-Forwarded-Proto.
func isConnectionSecure(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
