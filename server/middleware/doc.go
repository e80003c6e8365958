// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides the HTTP request pipeline of the dashboard.

Handlers are plain http.Handler values chained through [Middleware]
functions by router.RegisterMiddleware. Route handlers that return an error
are adapted with [CatchError], which buffers their output, renders themed
error pages and logs the request.
*/
package middleware
