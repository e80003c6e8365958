// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net/http"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		request    *http.Request
		expectedIP string
		ok         bool
	}{
		{
			name: "X-Real-IP from trusted proxy",
			request: &http.Request{
				RemoteAddr: "127.0.0.1:12345",
				Header:     http.Header{"X-Real-Ip": {"2.2.2.2"}},
			},
			expectedIP: "2.2.2.2",
			ok:         true,
		},
		{
			name: "Last X-Forwarded-For hop from trusted proxy",
			request: &http.Request{
				RemoteAddr: "192.168.1.1:12345",
				Header:     http.Header{"X-Forwarded-For": {"3.3.3.3, 4.4.4.4"}},
			},
			expectedIP: "4.4.4.4",
			ok:         true,
		},
		{
			name: "Proxy headers from untrusted source are ignored",
			request: &http.Request{
				RemoteAddr: "1.1.1.1:12345",
				Header:     http.Header{"X-Real-Ip": {"2.2.2.2"}},
			},
			expectedIP: "1.1.1.1",
			ok:         true,
		},
		{
			name: "Unix socket behind proxy",
			request: &http.Request{
				RemoteAddr: "@",
				Header:     http.Header{"X-Real-Ip": {"5.5.5.5"}},
			},
			expectedIP: "5.5.5.5",
			ok:         true,
		},
		{
			name:    "Unix socket without proxy",
			request: &http.Request{RemoteAddr: "@"},
		},
		{
			name: "IPv4-mapped IPv6 is unmapped",
			request: &http.Request{
				RemoteAddr: "[::ffff:8.8.8.8]:443",
			},
			expectedIP: "8.8.8.8",
			ok:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			addr, ok := getClientIP(tt.request)

			assert.Equal(t, tt.ok, ok)

			if tt.ok {
				assert.Equal(t, tt.expectedIP, addr.String())
			}
		})
	}
}

func TestParseIPListAndMatch(t *testing.T) {
	t.Parallel()

	list, err := parseIPList([]string{"10.0.0.0/8", " 192.168.1.5 ", "", "2001:db8::/32", "10.1.2.3/8"})
	require.NoError(t, err)
	require.Len(t, list, 4)

	assert.Equal(t, "10.0.0.0/8", list[3].String())

	tests := map[string]bool{
		"10.20.30.40":  true,
		"192.168.1.5":  true,
		"192.168.1.6":  false,
		"2001:db8::1":  true,
		"2001:db9::1":  false,
		"203.0.113.10": false,
	}

	for ip, want := range tests {
		assert.Equal(t, want, ipMatchesList(netip.MustParseAddr(ip), list), ip)
	}

	_, err = parseIPList([]string{"300.1.1.1"})
	assert.ErrorIs(t, err, errInvalidListItem)
}

func TestGetNetwork(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "203.0.113.0/24", getNetwork(netip.MustParseAddr("203.0.113.77"), 24, 48).String())
	assert.Equal(t, "2001:db8:abcd::/48", getNetwork(netip.MustParseAddr("2001:db8:abcd:12::1"), 24, 48).String())
	assert.Equal(t, "203.0.113.77/32", getNetwork(netip.MustParseAddr("203.0.113.77"), 99, 48).String())
}
