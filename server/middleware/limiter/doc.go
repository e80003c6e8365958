// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package limiter provides network-based rate limiting for HTTP requests.

Clients are grouped by their IP network (a /24 for IPv4 and a /48 for IPv6
by default) and every network shares one token bucket. When header checks are
enabled, each request is classified as normal or suspicious; a network whose
recent clients are mostly suspicious is moved onto a reduced rate until its
history improves.

Explicit pass and block lists take precedence over everything else.
*/
package limiter
