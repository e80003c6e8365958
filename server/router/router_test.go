// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mambo/dashboard/config"
	"codeberg.org/mambo/dashboard/i18n"
	"codeberg.org/mambo/dashboard/server/assets"
	"codeberg.org/mambo/dashboard/server/metrics"
	"codeberg.org/mambo/dashboard/server/middleware"
	"codeberg.org/mambo/dashboard/server/render"
	"codeberg.org/mambo/dashboard/server/routes"
)

const testCSS = ".main-header { color: #fff; }\n"

func TestMain(m *testing.M) {
	config.Global.SetDefaults()
	config.Global.Metrics.Enabled = true
	config.Global.Instance.FileServerCacheID = "testcache"

	if err := i18n.Setup(); err != nil {
		log.Fatalf("i18n setup: %v", err)
	}

	assets.FS = fstest.MapFS{
		"assets/css/dashboard.css": {Data: []byte(testCSS)},
		"assets/robots.txt":        {Data: []byte("User-agent: *\n")},
	}

	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) (*Router, *metrics.Metrics) {
	t.Helper()

	m, err := metrics.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	renderer, err := render.New(render.Options{CacheEnabled: true, CacheSize: 4, Metrics: m})
	require.NoError(t, err)

	r := NewRouter()
	require.NoError(t, r.DefineRoutes(routes.New(renderer), m))
	r.RegisterMiddleware(nil)

	return r, m
}

func serve(t *testing.T, r http.Handler, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	return rr
}

func TestRouterMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var calls []string

	r := NewRouter()
	r.HandleFunc("/", func(http.ResponseWriter, *http.Request) { calls = append(calls, "handler") })

	for _, name := range []string{"outer", "inner"} {
		r.Use(func(w http.ResponseWriter, req *http.Request, next http.Handler) {
			calls = append(calls, name)
			next.ServeHTTP(w, req)
		})
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, calls)
}

func TestIndexPage(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	rr := serve(t, r, "/", map[string]string{"Accept-Language": "en-US,en;q=0.9"})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "en", rr.Header().Get("Content-Language"))
	assert.Equal(t, config.Global.CacheControl(), rr.Header().Get("Cache-Control"))

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)

	assert.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "Mambo Investing - Intelligent Trading Decision Platform", doc.Find("title").Text())
	assert.Equal(t, 4, doc.Find(".feature-grid .metric-card").Length())
	assert.Equal(t, "/css/dashboard.css", doc.Find(`link[rel="stylesheet"]`).AttrOr("href", ""))
}

func TestIndexDefaultsToConfiguredLocale(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	rr := serve(t, r, "/", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "zh-CN", rr.Header().Get("Content-Language"))
	assert.Contains(t, rr.Body.String(), "曼波投资 - 智能交易决策平台")
}

func TestHeaderFragment(t *testing.T) {
	t.Parallel()

	r, m := newTestRouter(t)

	for range 2 {
		rr := serve(t, r, "/components/header", map[string]string{"Accept-Language": "en"})
		require.Equal(t, http.StatusOK, rr.Code)

		body := rr.Body.String()
		assert.NotContains(t, body, "<html")
		assert.True(t, strings.HasPrefix(body, `<div class="main-header">`))
		assert.True(t, strings.HasSuffix(body, `<hr class="header-divider">`))
		assert.Equal(t, 1, strings.Count(body, `class="feature-grid"`))
	}

	assert.Contains(t, scrapeMetrics(t, m), `dashboard_fragment_cache_lookups_total{result="hit"} 1`)
}

func TestHeaderFragmentLangQuery(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	rr := serve(t, r, "/components/header?lang=zh-CN", map[string]string{"Accept-Language": "en"})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "智能体协作")
	assert.Equal(t, "private, no-cache", rr.Header().Get("Cache-Control"))

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, i18n.LangCookie, cookies[0].Name)
	assert.Equal(t, "zh-CN", cookies[0].Value)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	rr := serve(t, r, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok\n", rr.Body.String())
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestStaticAssets(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	rr := serve(t, r, "/css/dashboard.css", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, testCSS, rr.Body.String())
	assert.Equal(t, `"testcache"`, rr.Header().Get("ETag"))
	assert.Equal(t, "max-age=604800", rr.Header().Get("Cache-Control"))

	rr = serve(t, r, "/robots.txt", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "max-age=86400", rr.Header().Get("Cache-Control"))

	rr = serve(t, r, "/css/dashboard.css", map[string]string{"If-None-Match": `"testcache"`})
	assert.Equal(t, http.StatusNotModified, rr.Code)
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	rr := serve(t, r, "/no/such/page", map[string]string{"Accept-Language": "en"})

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)

	assert.Equal(t, "404", doc.Find(".error-status").Text())
	assert.Equal(t, "404 - Dashboard", doc.Find("title").Text())
}

func TestTrailingSlashRedirect(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	rr := serve(t, r, "/components/header/?lang=en", nil)

	assert.Equal(t, http.StatusPermanentRedirect, rr.Code)
	assert.Equal(t, "/components/header?lang=en", rr.Header().Get("Location"))
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)
	rr := serve(t, r, "/", nil)

	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "script-src 'none'")
	assert.NotEmpty(t, rr.Header().Get("Dashboard-Version"))
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	r, _ := newTestRouter(t)

	serve(t, r, "/", nil)

	rr := serve(t, r, config.Global.Metrics.Path, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `dashboard_render_total{component="index",locale="zh-CN"} 1`)
}

func TestCompression(t *testing.T) {
	t.Parallel()

	renderer, err := render.New(render.Options{})
	require.NoError(t, err)

	r := NewRouter()
	require.NoError(t, r.DefineRoutes(routes.New(renderer), nil))
	r.Use(middleware.Compress())

	rr := serve(t, r, "/", map[string]string{"Accept-Encoding": "gzip"})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
}

func scrapeMetrics(t *testing.T, m *metrics.Metrics) string {
	t.Helper()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)

	return string(body)
}
