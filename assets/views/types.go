// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package views holds the templ components of the dashboard.

The *_templ.go files are generated from the .templ sources with
`templ generate`; edit the .templ files instead.
*/
package views

// PageData is the data every full page needs for its layout.
type PageData struct {
	Title   string
	RepoURL string
}

// ErrorData is the data for the generic error page.
type ErrorData struct {
	PageData

	StatusCode int
	Message    string
}
