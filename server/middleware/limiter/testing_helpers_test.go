// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for deterministic token buckets.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// newTestLimiter creates a limiter on a fake clock with rate 1/s and burst 3.
func newTestLimiter(t *testing.T, mutate func(*Options)) (*Limiter, *fakeClock) {
	t.Helper()

	opts := Options{
		Rate:          1,
		Burst:         3,
		IPv4Prefix:    24,
		IPv6Prefix:    48,
		ExcludedPaths: []string{"/css/", "/healthz"},
	}
	if mutate != nil {
		mutate(&opts)
	}

	l, err := New(opts)
	require.NoError(t, err)

	clock := newFakeClock()
	l.timeNow = clock.Now

	return l, clock
}

// browserRequest builds a request that passes the header checks.
func browserRequest(target, remoteAddr string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	r.RemoteAddr = remoteAddr
	r.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0")
	r.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9")
	r.Header.Set("Accept-Encoding", "gzip, deflate, br")
	r.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")

	return r
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})
