// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// getClientIP extracts the client's IP address from an HTTP request with proxy awareness.
//
// Proxy headers (X-Real-IP, X-Forwarded-For) are only trusted when the connection
// comes from a private or loopback address. ok is false when no address can be
// determined, for example on a unix socket without a proxy.
func getClientIP(r *http.Request) (addr netip.Addr, ok bool) {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}

	remoteAddr, err := netip.ParseAddr(remote)
	trusted := remote == "" || remote == "@" || (err == nil && (remoteAddr.IsPrivate() || remoteAddr.IsLoopback()))

	if trusted {
		// X-Real-IP takes precedence as it's typically the originating client IP
		// when set by a trusted proxy.
		if realIP, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
			return realIP.Unmap(), true
		}

		// Otherwise the last hop of X-Forwarded-For is the client as seen by our proxy.
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			hops := strings.Split(xff, ",")
			if last, err := netip.ParseAddr(strings.TrimSpace(hops[len(hops)-1])); err == nil {
				return last.Unmap(), true
			}
		}
	}

	if err != nil {
		return netip.Addr{}, false
	}

	return remoteAddr.Unmap(), true
}

// parseIPList parses entries that are either single addresses or CIDR prefixes.
func parseIPList(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())

			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", errInvalidListItem, entry)
		}

		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}

	return prefixes, nil
}

// ipMatchesList reports whether addr is inside any of prefixes.
func ipMatchesList(addr netip.Addr, prefixes []netip.Prefix) bool {
	for _, prefix := range prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}

	return false
}

// getNetwork returns the network of addr using the prefix length of its family.
func getNetwork(addr netip.Addr, ipv4Prefix, ipv6Prefix int) netip.Prefix {
	bits := ipv6Prefix
	if addr.Is4() {
		bits = ipv4Prefix
	}

	network, err := addr.Prefix(bits)
	if err != nil {
		// Out-of-range lengths are rejected by config validation; fall back to the host.
		return netip.PrefixFrom(addr, addr.BitLen())
	}

	return network
}
