// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n provides internationalisation utilities backed by GNU gettext
.po catalogues embedded from the po/ directory.

# Quick start

Use the original English UI text as the msgid; do not invent keys.

	i18n.Tr(ctx, "Real-time data")
	i18n.TrC(ctx, "nav", "Home") // disambiguation via context
	i18n.TrN(ctx, "{{.Count}} card", "{{.Count}} cards", n, "Count", n)

Translations can be used directly in templ templates:

	{ i18n.Tr(ctx, "Global Markets") }

A [MsgKey] is itself a templ component:

	@header.GetBanner().Title

# Locale selection

[FromRequest] considers, in order, the "lang" query parameter, the "lang"
cookie and the Accept-Language header. When nothing matches, the configured
default locale is used.

# Missing translations

By default, missing translations return the msgid unchanged. When
StrictMissingKeys is enabled, missing lookups are logged once
per locale+key and the returned text is visibly wrapped as "⟦...⟧".
*/
package i18n
