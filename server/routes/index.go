// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"codeberg.org/mambo/dashboard/assets/views"
	"codeberg.org/mambo/dashboard/config"
	"codeberg.org/mambo/dashboard/core/header"
	"codeberg.org/mambo/dashboard/server/render"
)

// IndexPage is the handler for the / page.
func (h *Handlers) IndexPage(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	pageData := views.PageData{
		Title:   header.GetBanner().Title.Tr(ctx),
		RepoURL: config.Global.Instance.RepoURL,
	}

	body, err := h.Renderer.Render(ctx, render.ComponentIndex, views.Index(pageData))
	if err != nil {
		return err
	}

	setLocalizedCacheHeaders(w, r)

	return render.WriteHTML(w, http.StatusOK, body)
}
