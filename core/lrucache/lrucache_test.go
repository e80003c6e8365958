// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package lrucache

import (
	"bytes"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("InvalidSize", func(t *testing.T) {
		t.Parallel()

		cache, err := New(0, false)
		require.ErrorIs(t, err, ErrInvalidSize)
		assert.Nil(t, cache)
	})

	for _, compress := range []bool{false, true} {
		t.Run("Compress="+strconv.FormatBool(compress), func(t *testing.T) {
			t.Parallel()

			cache, err := New(3, compress)
			require.NoError(t, err)
			assert.Zero(t, cache.Len())
		})
	}
}

func TestAddGetEvict(t *testing.T) {
	t.Parallel()

	cache, err := New(2, false)
	require.NoError(t, err)

	assert.False(t, cache.Add("en", []byte("<h1>en</h1>")))
	assert.False(t, cache.Add("zh-CN", []byte("<h1>zh</h1>")))

	// Touch "en" so "zh-CN" becomes the oldest.
	_, ok := cache.Get("en")
	require.True(t, ok)

	assert.True(t, cache.Add("ja", []byte("<h1>ja</h1>")))

	_, ok = cache.Get("zh-CN")
	assert.False(t, ok)
	assert.Equal(t, []string{"en", "ja"}, cache.Keys())

	stats := cache.Stats()
	assert.Equal(t, 2, stats.Len)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestUpdateExistingKey(t *testing.T) {
	t.Parallel()

	cache, err := New(2, false)
	require.NoError(t, err)

	cache.Add("en", []byte("old"))
	assert.False(t, cache.Add("en", []byte("new")))

	got, ok := cache.Get("en")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
	assert.Equal(t, 1, cache.Len())
}

func TestValuesAreCopied(t *testing.T) {
	t.Parallel()

	cache, err := New(1, false)
	require.NoError(t, err)

	value := []byte("fragment")
	cache.Add("k", value)
	value[0] = 'X'

	got, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("fragment"), got)

	got[0] = 'Y'

	again, _ := cache.Get("k")
	assert.Equal(t, []byte("fragment"), again)
}

func TestCompressionRoundTrip(t *testing.T) {
	t.Parallel()

	cache, err := New(4, true)
	require.NoError(t, err)

	large := bytes.Repeat([]byte(`<div class="metric-card"><h4>card</h4></div>`), 64)
	small := []byte("x")

	cache.Add("large", large)
	cache.Add("small", small)

	gotLarge, ok := cache.Get("large")
	require.True(t, ok)
	assert.Equal(t, large, gotLarge)

	gotSmall, ok := cache.Get("small")
	require.True(t, ok)
	assert.Equal(t, small, gotSmall)
}

func TestRemoveAndPurge(t *testing.T) {
	t.Parallel()

	cache, err := New(3, false)
	require.NoError(t, err)

	cache.Add("a", []byte("1"))
	cache.Add("b", []byte("2"))

	assert.True(t, cache.Remove("a"))
	assert.False(t, cache.Remove("a"))

	cache.Purge()
	assert.Zero(t, cache.Len())
	assert.Empty(t, cache.Keys())
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	cache, err := New(8, true)
	require.NoError(t, err)

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			key := strconv.Itoa(i % 10)
			for range 100 {
				cache.Add(key, []byte(key))

				if got, ok := cache.Get(key); ok {
					assert.Equal(t, []byte(key), got)
				}
			}
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), 8)
}
