// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

//go:build integration

/*
To run these tests, specify `-tags=integration` when running `go test`.
*/
package main

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// Server configuration constants.
	host      = "127.0.0.1:8282"
	authority = "http://127.0.0.1:8282"

	// Polling constants.
	retryCount  = 10
	dialTimeout = 250 * time.Millisecond
)

// httpTestCase defines a test case.
type httpTestCase struct {
	URL                string
	ExpectedStatusCode int
	ContentType        string
}

// setDefault sets the default values for the test case.
func (c *httpTestCase) setDefault() {
	if c.ExpectedStatusCode == 0 {
		c.ExpectedStatusCode = http.StatusOK
	}
}

// TestMain is used for global setup and teardown.
//
// It starts the server and waits for it to be available before running tests.
func TestMain(m *testing.M) {
	hostname, port, _ := net.SplitHostPort(host)

	for key, value := range map[string]string{
		"DASHBOARD_HOST":    hostname,
		"DASHBOARD_PORT":    port,
		"DASHBOARD_METRICS": "true",
	} {
		if err := os.Setenv(key, value); err != nil {
			log.Fatalf("Setting %s: %v", key, err)
		}
	}

	go func() {
		if err := run(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for the server.
	if !waitForServerReady() {
		log.Fatalf("Server did not start in time")
	}

	os.Exit(m.Run())
}

// waitForServerReady polls the server until it's available or the retries are exhausted.
func waitForServerReady() bool {
	for range retryCount {
		conn, err := net.DialTimeout("tcp", host, dialTimeout)
		if err == nil {
			_ = conn.Close()

			return true // Server is up.
		}

		time.Sleep(dialTimeout)
	}

	return false
}

// TestBasicAllRoutes tests all routes of the server.
func TestBasicAllRoutes(t *testing.T) {
	t.Parallel()

	testCases := []httpTestCase{
		{URL: "/", ContentType: "text/html"},
		{URL: "/?lang=en", ContentType: "text/html"},
		{URL: "/?lang=zh-CN", ContentType: "text/html"},
		{URL: "/components/header", ContentType: "text/html"},
		{URL: "/healthz", ContentType: "text/plain"},
		{URL: "/robots.txt", ContentType: "text/plain"},
		{URL: "/css/dashboard.css", ContentType: "text/css"},
		{URL: "/metrics", ContentType: "text/plain"},
		{URL: "/no-such-page", ExpectedStatusCode: http.StatusNotFound, ContentType: "text/html"},
	}

	for _, tc := range testCases {
		t.Run(tc.URL, func(t *testing.T) {
			t.Parallel()

			tc.setDefault()

			resp := makeRequest(t, buildRequest(t, authority+tc.URL, ""))
			defer resp.Body.Close()

			assert.Equal(t, tc.ExpectedStatusCode, resp.StatusCode)
			assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), tc.ContentType),
				"unexpected Content-Type %q", resp.Header.Get("Content-Type"))
		})
	}
}

func TestHeaderCards(t *testing.T) {
	t.Parallel()

	resp := makeRequest(t, buildRequest(t, authority+"/components/header", "en"))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Find(".main-header").Length())
	assert.Equal(t, 4, doc.Find(".feature-grid .metric-card").Length())
	assert.Equal(t, 1, doc.Find("hr.header-divider").Length())
}

func TestMetricsCountRequests(t *testing.T) {
	t.Parallel()

	resp := makeRequest(t, buildRequest(t, authority+"/healthz", ""))
	resp.Body.Close()

	resp = makeRequest(t, buildRequest(t, authority+"/metrics", ""))
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "dashboard_http_requests_total")
}

func buildRequest(t *testing.T, link, acceptLanguage string) *http.Request {
	t.Helper()

	req, err := http.NewRequestWithContext(context.TODO(), http.MethodGet, link, nil)
	require.NoError(t, err)

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0")

	if acceptLanguage != "" {
		req.Header.Set("Accept-Language", acceptLanguage)
	}

	return req
}

func makeRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}
