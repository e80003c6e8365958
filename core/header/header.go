// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package header holds the fixed content of the dashboard page header:
the title banner and the ordered feature highlights shown beneath it.

All text is stored as [i18n.MsgKey] values so the views can render it in
the locale of the current request.
*/
package header

import "codeberg.org/mambo/dashboard/i18n"

// Banner is the title block at the top of the page.
type Banner struct {
	Title    i18n.MsgKey
	Subtitle i18n.MsgKey
}

// Feature is one card of the feature-highlight strip.
type Feature struct {
	// Icon is an emoji shown before the title.
	Icon        string
	Title       i18n.MsgKey
	Description i18n.MsgKey
}

// BannerIcon precedes the banner title.
const BannerIcon = "💼"

var banner = Banner{
	Title:    "Mambo Investing - Intelligent Trading Decision Platform",
	Subtitle: "A professional financial trading decision framework based on multi-agent large language models",
}

var features = [...]Feature{
	{
		Icon:        "🤖",
		Title:       "Agent Collaboration",
		Description: "A team of professional analysts working together",
	},
	{
		Icon:        "🌍",
		Title:       "Global Markets",
		Description: "Supports A-share, Hong Kong and US stock analysis",
	},
	{
		Icon:        "📊",
		Title:       "Real-time Data",
		Description: "Fetches the latest stock market data",
	},
	{
		Icon:        "🎯",
		Title:       "Professional Advice",
		Description: "AI-based investment decision recommendations",
	},
}

// FeatureCount is the number of cards, and columns, in the feature strip.
const FeatureCount = len(features)

// GetBanner returns the page banner.
func GetBanner() Banner {
	return banner
}

// Features returns the feature cards in display order.
//
// The returned slice is a fresh copy and may be modified by the caller.
func Features() []Feature {
	out := make([]Feature, FeatureCount)
	copy(out, features[:])

	return out
}

// MessageKeys lists every translatable string of the header in display order.
func MessageKeys() []i18n.MsgKey {
	keys := []i18n.MsgKey{banner.Title, banner.Subtitle}
	for _, f := range features {
		keys = append(keys, f.Title, f.Description)
	}

	return keys
}
