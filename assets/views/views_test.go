// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package views

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"codeberg.org/mambo/dashboard/core/header"
	"codeberg.org/mambo/dashboard/i18n"
)

func TestMain(m *testing.M) {
	if err := i18n.Setup(); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func renderComponent(t *testing.T, ctx context.Context, c templ.Component) (string, *goquery.Document) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, c.Render(ctx, &buf))

	html := buf.String()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	return html, doc
}

func english() context.Context {
	return i18n.WithTag(context.Background(), language.English)
}

func TestHeaderStructure(t *testing.T) {
	t.Parallel()

	_, doc := renderComponent(t, english(), Header())

	banner := doc.Find(".main-header")
	require.Equal(t, 1, banner.Length())
	assert.Equal(t,
		"💼 Mambo Investing - Intelligent Trading Decision Platform",
		strings.TrimSpace(banner.Find("h1").Text()))
	assert.Equal(t,
		"A professional financial trading decision framework based on multi-agent large language models",
		strings.TrimSpace(banner.Find("p").Text()))

	cards := doc.Find(".feature-grid > .metric-card")
	require.Equal(t, header.FeatureCount, cards.Length())

	wantTitles := []string{
		"🤖 Agent Collaboration",
		"🌍 Global Markets",
		"📊 Real-time Data",
		"🎯 Professional Advice",
	}
	wantDescriptions := []string{
		"A team of professional analysts working together",
		"Supports A-share, Hong Kong and US stock analysis",
		"Fetches the latest stock market data",
		"AI-based investment decision recommendations",
	}

	cards.Each(func(i int, card *goquery.Selection) {
		assert.Equal(t, wantTitles[i], strings.TrimSpace(card.Find("h4").Text()))
		assert.Equal(t, wantDescriptions[i], strings.TrimSpace(card.Find("p").Text()))
	})
}

func TestHeaderOrdering(t *testing.T) {
	t.Parallel()

	html, doc := renderComponent(t, english(), Header())

	// Banner, then grid, then a single trailing divider.
	bannerAt := strings.Index(html, `class="main-header"`)
	gridAt := strings.Index(html, `class="feature-grid"`)
	hrAt := strings.Index(html, "<hr")

	require.NotEqual(t, -1, bannerAt)
	assert.Less(t, bannerAt, gridAt)
	assert.Less(t, gridAt, hrAt)
	assert.Equal(t, 1, doc.Find("hr").Length())
	assert.True(t, strings.HasSuffix(html, `<hr class="header-divider">`))
}

func TestHeaderIsDeterministic(t *testing.T) {
	t.Parallel()

	first, _ := renderComponent(t, english(), Header())

	for range 3 {
		again, _ := renderComponent(t, english(), Header())
		assert.Equal(t, first, again)
	}
}

func TestHeaderTranslated(t *testing.T) {
	t.Parallel()

	ctx := i18n.WithTag(context.Background(), language.MustParse("zh-CN"))

	_, doc := renderComponent(t, ctx, Header())

	assert.Equal(t, "💼 曼波投资 - 智能交易决策平台", strings.TrimSpace(doc.Find(".main-header h1").Text()))
	assert.Equal(t, "🤖 智能体协作", strings.TrimSpace(doc.Find(".metric-card h4").First().Text()))
	assert.Equal(t, "基于AI的投资决策建议", strings.TrimSpace(doc.Find(".metric-card p").Last().Text()))
}

func TestIndexPage(t *testing.T) {
	t.Parallel()

	data := PageData{Title: "Dashboard", RepoURL: "https://codeberg.org/mambo/dashboard"}

	_, doc := renderComponent(t, english(), Index(data))

	assert.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "Dashboard", doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find("main.dashboard .main-header").Length())
	assert.Equal(t, header.FeatureCount, doc.Find("main.dashboard .metric-card").Length())

	link := doc.Find("footer a")
	assert.Equal(t, "https://codeberg.org/mambo/dashboard", link.AttrOr("href", ""))
	assert.Equal(t, "Source code", link.Text())
}

func TestErrorPage(t *testing.T) {
	t.Parallel()

	ctx := i18n.WithTag(context.Background(), language.MustParse("zh-CN"))
	data := ErrorData{
		PageData:   PageData{Title: "404", RepoURL: "https://codeberg.org/mambo/dashboard"},
		StatusCode: 404,
		Message:    "<missing>",
	}

	html, doc := renderComponent(t, ctx, Error(data))

	assert.Equal(t, "zh-CN", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "出错了", doc.Find(".error-page h1").Text())
	assert.Equal(t, "404", doc.Find(".error-status").Text())
	assert.Equal(t, "返回仪表盘", doc.Find(".error-page a").Text())
	assert.Contains(t, html, "&lt;missing&gt;")
	assert.Zero(t, doc.Find(".metric-card").Length())
}
