// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"text/template"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// templateCache caches compiled templates per unique template text.
var templateCache sync.Map // key: text, value: *template.Template

// Vars holds named placeholder values for a translation.
type Vars map[string]any

// Tr returns the translated string for a source message id (msgid), which should
// be the original English UI text. If key-value pairs are provided, the translation
// is formatted using text/template-style named placeholders.
//
// If a translation is not found, Tr returns the msgid unchanged, or visibly wrapped
// if strict mode is enabled.
func Tr(ctx context.Context, msgid string, kv ...any) string {
	return translate(ctx, "", msgid, "", 0, false, v(kv...))
}

// TrC translates msgid with an explicit disambiguating context, like gettext's pgettext.
func TrC(ctx context.Context, contextKey, msgid string, kv ...any) string {
	return translate(ctx, contextKey, msgid, "", 0, false, v(kv...))
}

// TrN translates a singular or plural message depending on n. If a translation
// is missing, we choose singular when n == 1, otherwise plural.
func TrN(ctx context.Context, singular, plural string, n int, kv ...any) string {
	return translate(ctx, "", singular, plural, n, true, v(kv...))
}

func translate(
	ctx context.Context,
	contextKey, singular, plural string,
	n int,
	pluralMode bool,
	vars Vars,
) string {
	loc, matched := resolveLocale(TagFrom(ctx))

	base := singular
	if pluralMode && n != 1 {
		base = plural
	}

	finalText := base

	// msgids are written in the base locale, so they are their own translation.
	found := matched == baseTag

	if loc != nil && !found {
		switch {
		case pluralMode:
			found = loc.IsTranslatedND(poDomain, singular, n)
			if found {
				finalText = getND(loc, singular, plural, n)
			}
		case contextKey != "":
			found = loc.IsTranslatedDC(poDomain, singular, contextKey)
			if found {
				finalText = getDC(loc, singular, contextKey)
			}
		default:
			found = loc.IsTranslatedD(poDomain, singular)
			if found {
				finalText = getD(loc, singular)
			}
		}
	}

	if !found && strictMissingKeys() {
		logMissingOnce(matched.String(), buildLogKey(contextKey, singular))

		finalText = "⟦" + base + "⟧"
	}

	return render(matched, finalText, vars)
}

// The gotext getters take printf-style variadic arguments and only format
// when some are passed. Calling them through method values keeps msgids
// containing '%' out of the printf checks; placeholders use {{.Name}} instead.

func getD(loc *gotext.Locale, msgid string) string {
	get := loc.GetD

	return get(poDomain, msgid)
}

func getDC(loc *gotext.Locale, msgid, contextKey string) string {
	get := loc.GetDC

	return get(poDomain, msgid, contextKey)
}

func getND(loc *gotext.Locale, singular, plural string, n int) string {
	get := loc.GetND

	return get(poDomain, singular, plural, n)
}

// render formats s as a text/template using the provided data.
func render(locale language.Tag, s string, data Vars) string {
	if !strings.Contains(s, "{{") {
		return s
	}

	var tmpl *template.Template

	if cached, ok := templateCache.Load(s); ok {
		tmpl = cached.(*template.Template)
	} else {
		parsed, err := template.New("msg").Option("missingkey=error").Parse(s)
		if err != nil {
			Logger.Error().Err(err).Str("locale", locale.String()).Str("text", s).Msg("i18n template parse error")

			return s
		}

		templateCache.Store(s, parsed)

		tmpl = parsed
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any(data)); err != nil {
		Logger.Error().Err(err).Str("locale", locale.String()).Str("text", s).Msg("i18n template execute error")

		return s
	}

	return buf.String()
}

// resolveLocale matches t to one of the loaded locales and returns the
// corresponding gotext.Locale and the matched tag.
// If no matcher is set up, it returns nil and baseTag.
func resolveLocale(t language.Tag) (*gotext.Locale, language.Tag) {
	if matcher == nil {
		return nil, baseTag
	}

	matched, _, _ := matcher.Match(t)
	matched = canonical(matched)

	return localesByTag[matched.String()], matched
}

// v builds Vars from alternating key, value pairs.
// Panics on programmer error.
func v(kv ...any) Vars {
	if len(kv)%2 != 0 {
		panic("i18n: odd number of arguments, want key, value pairs")
	}

	if len(kv) == 0 {
		return nil
	}

	vars := make(Vars, len(kv)/2)

	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic("i18n: placeholder names must be strings")
		}

		vars[key] = kv[i+1]
	}

	return vars
}
