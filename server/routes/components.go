// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package routes

import (
	"net/http"

	"codeberg.org/mambo/dashboard/assets/views"
	"codeberg.org/mambo/dashboard/server/render"
)

// HeaderFragment is the handler for /components/header. It serves the page
// header alone, ready to be inserted as raw HTML into a host page.
func (h *Handlers) HeaderFragment(w http.ResponseWriter, r *http.Request) error {
	body, err := h.Renderer.Fragment(r.Context(), render.ComponentHeader, views.Header())
	if err != nil {
		return err
	}

	setLocalizedCacheHeaders(w, r)

	return render.WriteHTML(w, http.StatusOK, body)
}
