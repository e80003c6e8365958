// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"crypto/tls"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockedByHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		mutate func(r *http.Request)
		want   string
	}{
		{name: "Browser", target: "/", want: ""},
		{
			name:   "Missing User-Agent",
			target: "/",
			mutate: func(r *http.Request) { r.Header.Del("User-Agent") },
			want:   "missing User-Agent header",
		},
		{
			name:   "Known bot",
			target: "/",
			mutate: func(r *http.Request) { r.Header.Set("User-Agent", "python-requests/2.31") },
			want:   "known bot User-Agent",
		},
		{
			name:   "HTML page without text/html",
			target: "/",
			mutate: func(r *http.Request) { r.Header.Set("Accept", "application/json") },
			want:   "Accept header lacks text/html",
		},
		{
			name:   "Stylesheet",
			target: "/css/dashboard.css",
			mutate: func(r *http.Request) { r.Header.Set("Accept", "text/css") },
			want:   "",
		},
		{
			name:   "Wildcard Accept",
			target: "/components/header",
			mutate: func(r *http.Request) { r.Header.Set("Accept", "*/*") },
			want:   "",
		},
		{
			name:   "Missing Accept-Language",
			target: "/",
			mutate: func(r *http.Request) { r.Header.Del("Accept-Language") },
			want:   "missing Accept-Language header",
		},
		{
			name:   "Unsupported encoding",
			target: "/",
			mutate: func(r *http.Request) { r.Header.Set("Accept-Encoding", "x-custom") },
			want:   "unsupported Accept-Encoding header",
		},
		{
			name:   "HTTPS without Sec-Fetch headers",
			target: "/",
			mutate: func(r *http.Request) { r.TLS = &tls.ConnectionState{} },
			want:   "missing Sec-Fetch-Dest header",
		},
		{
			name:   "HTTPS behind proxy with Sec-Fetch headers",
			target: "/",
			mutate: func(r *http.Request) {
				r.Header.Set("X-Forwarded-Proto", "https")
				r.Header.Set("Sec-Fetch-Dest", "document")
				r.Header.Set("Sec-Fetch-Mode", "navigate")
				r.Header.Set("Sec-Fetch-Site", "none")
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := browserRequest(tt.target, "203.0.113.1:1")
			if tt.mutate != nil {
				tt.mutate(r)
			}

			assert.Equal(t, tt.want, blockedByHeaders(r))
		})
	}
}
