// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"slices"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// BaseLocale is the language the msgids are written in.
const BaseLocale = "en"

var (
	// baseTag is the canonical tag for BaseLocale.
	baseTag = language.Make(BaseLocale)

	// defaultTag is served when a request expresses no usable preference.
	// It is replaced by Setup.
	defaultTag = baseTag
)

// DefaultTag returns the tag served when no preference matches.
func DefaultTag() language.Tag {
	return defaultTag
}

// Languages returns the supported language tags, sorted by tag string.
//
// The returned slice is a copy and is safe to retain.
//
// Setup must be called successfully before using Languages; otherwise it panics.
func Languages() []language.Tag {
	if matcher == nil {
		panic("i18n: Setup must be called before calling Languages")
	}

	out := slices.Clone(supportedTags)
	slices.SortFunc(out, func(a, b language.Tag) int {
		switch as, bs := a.String(), b.String(); {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	})

	return out
}

// DisplayName returns the name of t in its own language, e.g. "简体中文" for zh-CN.
func DisplayName(t language.Tag) string {
	if name := display.Self.Name(t); name != "" {
		return name
	}

	return t.String()
}
