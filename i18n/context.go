// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type contextKeyType struct{}

var tagKey = contextKeyType{}

const (
	// LangParam is the URL query parameter holding a preferred UI language as a BCP 47 tag.
	LangParam = "lang"

	// LangCookie is the cookie holding a preferred UI language as a BCP 47 tag.
	LangCookie = "lang"
)

// WithTag stores t in ctx and returns a derived context that carries it.
//
// Passing the zero value of [language.Tag] clears any existing value.
func WithTag(ctx context.Context, t language.Tag) context.Context {
	return context.WithValue(ctx, tagKey, t)
}

// TagFrom returns the language tag stored in ctx, or the default tag if none
// is present. It never returns the zero value of [language.Tag].
func TagFrom(ctx context.Context) language.Tag {
	if ctx != nil {
		if t, _ := ctx.Value(tagKey).(language.Tag); t != (language.Tag{}) {
			return t
		}
	}

	return defaultTag
}

// FromRequest returns the best supported language tag for r by inspecting user
// preferences in priority order:
// 1) query parameter [LangParam]
// 2) cookie [LangCookie]
// 3) Accept-Language header
//
// If [LangParam] is "auto" (case-insensitive), the cookie is ignored.
// If r is nil or Setup has not been called, the default tag is returned.
func FromRequest(r *http.Request) language.Tag {
	if r == nil || matcher == nil {
		return defaultTag
	}

	q := r.URL.Query().Get(LangParam)
	auto := strings.EqualFold(q, "auto")

	preferred := make([]string, 0, 3)
	if q != "" && !auto {
		preferred = append(preferred, q)
	}

	if !auto {
		if c, err := r.Cookie(LangCookie); err == nil && c.Value != "" {
			preferred = append(preferred, c.Value)
		}
	}

	if al := r.Header.Get("Accept-Language"); al != "" {
		preferred = append(preferred, al)
	}

	tag, _ := language.MatchStrings(matcher, preferred...)

	return canonical(tag)
}

// WithRequest is equivalent to WithTag(ctx, FromRequest(r)).
func WithRequest(ctx context.Context, r *http.Request) context.Context {
	return WithTag(ctx, FromRequest(r))
}

// canonical strips the "-u-rg-..." extensions the matcher may attach so
// the result equals one of the supported tags.
func canonical(tag language.Tag) language.Tag {
	b, s, r := tag.Raw()
	stripped, _ := language.Compose(b, s, r)

	return stripped
}
