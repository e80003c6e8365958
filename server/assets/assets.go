// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package assets provides access to the application's embedded static assets.

main assigns FS at startup; tests may substitute an fstest.MapFS.
*/
package assets

import "io/fs"

// FS holds the static files served under /css/ and at /robots.txt.
// Paths are rooted at "assets", for example "assets/css/dashboard.css".
var FS fs.FS
