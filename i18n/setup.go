// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/leonelquinteros/gotext"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"codeberg.org/mambo/dashboard/config"
)

//go:embed po
var catalogues embed.FS

const (
	// poDomain is the gettext domain to load under each locale.
	poDomain = "dashboard"

	poDir = "po"
)

var (
	// localesByTag maps canonical BCP 47 tags, for example "zh-CN",
	// to their loaded gotext.Locale.
	localesByTag map[string]*gotext.Locale

	// supportedTags holds the base tag plus every tag with a loaded catalogue.
	// The default tag comes first.
	supportedTags []language.Tag

	// matcher is a private [language.Matcher] derived from supportedTags.
	matcher language.Matcher
)

// Setup loads the embedded gettext catalogues and builds the language matcher.
// The default locale is taken from config.Global.
func Setup() error {
	return SetupFS(catalogues, config.Global.Internationalization.DefaultLocale)
}

// SetupFS loads every po/<locale>.po file from fsys and makes defaultLocale
// the fallback for unmatched requests.
//
// The <locale> part may use hyphens or underscores, for example "zh-CN.po" or "zh_CN.po".
// The template file po/dashboard.pot is ignored. A defaultLocale that is empty or has
// no catalogue falls back to [BaseLocale].
//
// Calling SetupFS again replaces the previously loaded locales and matcher.
func SetupFS(fsys fs.FS, defaultLocale string) error {
	Logger = log.With().Str("sys", "i18n").Logger()

	entries, err := fs.ReadDir(fsys, poDir)
	if err != nil {
		return fmt.Errorf("failed to read po directory: %w", err)
	}

	loaded := make(map[string]*gotext.Locale)

	var tags []language.Tag

	for _, entry := range entries {
		fileName := entry.Name()
		if entry.IsDir() || path.Ext(fileName) != ".po" {
			continue
		}

		t, err := language.Parse(strings.ReplaceAll(strings.TrimSuffix(fileName, ".po"), "_", "-"))
		if err != nil {
			Logger.Warn().Err(err).Str("file", fileName).Msg("Skipping invalid locale file")

			continue
		}

		po := gotext.NewPoFS(fsys)
		po.ParseFile(path.Join(poDir, fileName))

		loc := gotext.NewLocale("", t.String()) // Base path is unused when manually adding translators.
		loc.AddTranslator(poDomain, po)

		loaded[t.String()] = loc

		tags = append(tags, t)

		Logger.Info().
			Str("locale", t.String()).
			Str("domain", poDomain).
			Msg("Loaded locale")
	}

	fallback := baseTag

	if defaultLocale != "" {
		t, err := language.Parse(strings.ReplaceAll(defaultLocale, "_", "-"))
		if err != nil {
			return fmt.Errorf("invalid default locale %q: %w", defaultLocale, err)
		}

		if _, ok := loaded[t.String()]; ok || t == baseTag {
			fallback = t
		} else {
			Logger.Warn().
				Str("locale", t.String()).
				Msg("No catalogue for default locale, falling back to base locale")
		}
	}

	// The first tag given to NewMatcher is its fallback.
	all := []language.Tag{fallback}
	if fallback != baseTag {
		all = append(all, baseTag)
	}

	for _, t := range tags {
		if t != fallback && t != baseTag {
			all = append(all, t)
		}
	}

	localesByTag = loaded
	supportedTags = all
	defaultTag = fallback
	matcher = language.NewMatcher(all)

	return nil
}
