// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mambo/dashboard/config"
	"codeberg.org/mambo/dashboard/i18n"
	"codeberg.org/mambo/dashboard/server/middleware/set_request_context"
	"codeberg.org/mambo/dashboard/server/render"
)

func TestMain(m *testing.M) {
	config.Global.SetDefaults()

	if err := i18n.Setup(); err != nil {
		log.Fatalf("i18n setup: %v", err)
	}

	os.Exit(m.Run())
}

// call runs handler behind the request context middleware.
func call(
	t *testing.T,
	handler func(http.ResponseWriter, *http.Request) error,
	req *http.Request,
) (*httptest.ResponseRecorder, error) {
	t.Helper()

	var handlerErr error

	rr := httptest.NewRecorder()
	set_request_context.WithRequestContext(rr, req, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerErr = handler(w, r)
	}))

	return rr, handlerErr
}

func newHandlers(t *testing.T) *Handlers {
	t.Helper()

	renderer, err := render.New(render.Options{CacheEnabled: true, CacheSize: 4})
	require.NoError(t, err)

	return New(renderer)
}

func TestIndexPage(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")

	rr, err := call(t, newHandlers(t).IndexPage, req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, "zh-CN", rr.Header().Get("Content-Language"))
	assert.Contains(t, rr.Header().Values("Vary"), "Accept-Language, Cookie")

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)

	assert.Equal(t, "曼波投资 - 智能交易决策平台", doc.Find("title").Text())
	assert.Equal(t, config.Global.Instance.RepoURL, doc.Find(".dashboard-footer a").AttrOr("href", ""))

	var titles []string

	doc.Find(".metric-card h4").Each(func(_ int, s *goquery.Selection) {
		titles = append(titles, s.Text())
	})

	require.Len(t, titles, 4)
	assert.Equal(t, "🤖 智能体协作", titles[0])
}

func TestHeaderFragmentCachedPerLocale(t *testing.T) {
	t.Parallel()

	h := newHandlers(t)

	bodies := map[string]string{}

	for _, lang := range []string{"en", "zh-CN", "en"} {
		req := httptest.NewRequest(http.MethodGet, "/components/header", nil)
		req.Header.Set("Accept-Language", lang)

		rr, err := call(t, h.HeaderFragment, req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, rr.Code)

		if prev, ok := bodies[lang]; ok {
			assert.Equal(t, prev, rr.Body.String())
		}

		bodies[lang] = rr.Body.String()
	}

	assert.NotEqual(t, bodies["en"], bodies["zh-CN"])

	stats, ok := h.Renderer.CacheStats()
	require.True(t, ok)
	assert.Equal(t, 2, stats.Len)
	assert.Equal(t, uint64(1), stats.Hits)
}

func TestPersistLocale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		wantCookie bool
		wantValue  string
		wantMaxAge int
	}{
		{name: "NoQuery", target: "/components/header"},
		{name: "Explicit", target: "/components/header?lang=en", wantCookie: true, wantValue: "en", wantMaxAge: cookieMaxAge},
		{name: "Auto", target: "/components/header?lang=AUTO", wantCookie: true, wantMaxAge: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)

			rr, err := call(t, newHandlers(t).HeaderFragment, req)
			require.NoError(t, err)

			cookies := rr.Result().Cookies()
			if !tt.wantCookie {
				assert.Empty(t, cookies)
				assert.Equal(t, config.Global.CacheControl(), rr.Header().Get("Cache-Control"))

				return
			}

			require.Len(t, cookies, 1)
			assert.Equal(t, i18n.LangCookie, cookies[0].Name)
			assert.Equal(t, tt.wantValue, cookies[0].Value)
			assert.Equal(t, tt.wantMaxAge, cookies[0].MaxAge)
			assert.Equal(t, "private, no-cache", rr.Header().Get("Cache-Control"))
		})
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	require.NoError(t, Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil)))

	assert.Equal(t, "ok\n", rr.Body.String())
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	require.NoError(t, NotFound(rr, httptest.NewRequest(http.MethodGet, "/missing", nil)))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, rr.Body.String())
}
