// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEnv(t *testing.T) {
	t.Parallel()

	out := renderEnv(exampleConfig())

	assert.True(t, strings.HasPrefix(out, envFileHeader))
	assert.Contains(t, out, "## Basic\n")
	assert.Contains(t, out, "DASHBOARD_HOST=\"localhost\"\n")
	assert.Contains(t, out, "DASHBOARD_PORT=\"8501\"\n")
	assert.Contains(t, out, "# DASHBOARD_CACHE_SIZE=32\n")
	assert.Contains(t, out, "# DASHBOARD_DEFAULT_LOCALE=zh-CN\n")
	assert.Contains(t, out, "# DASHBOARD_LOG_OUTPUTS=/dev/stderr\n")
	assert.Contains(t, out, "# DASHBOARD_CACHE_CONTROL_MAX_AGE=5m0s\n")
	assert.NotContains(t, out, "## Build")
}

func TestRenderYAML(t *testing.T) {
	t.Parallel()

	out, err := renderYAML(exampleConfig())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, yamlFileHeader))
	assert.Contains(t, out, "\nbasic:\n")
	assert.Contains(t, out, "  host: localhost\n")
	assert.Contains(t, out, "  # defaultLocale: zh-CN\n")
}
