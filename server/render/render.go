// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package render turns templ components into bytes for the route handlers.

A [Renderer] times every render, reports it to Prometheus and the
Server-Timing header, and keeps locale-keyed copies of static fragments in
an LRU cache so repeated requests are served from memory.
*/
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"golang.org/x/sync/singleflight"

	"codeberg.org/mambo/dashboard/core/audit"
	"codeberg.org/mambo/dashboard/core/lrucache"
	"codeberg.org/mambo/dashboard/i18n"
	"codeberg.org/mambo/dashboard/server/metrics"
)

// Component names used as cache keys and metric labels.
const (
	ComponentHeader = "header"
	ComponentIndex  = "index"
	ComponentError  = "error"
)

// Options configures a Renderer.
type Options struct {
	// CacheEnabled turns on the fragment cache.
	CacheEnabled bool
	// CacheSize bounds the number of cached fragments.
	CacheSize int
	// CacheCompress stores fragments zstd-compressed.
	CacheCompress bool
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Renderer renders components, caching static fragments per locale.
type Renderer struct {
	cache   *lrucache.Cache // nil when caching is disabled
	metrics *metrics.Metrics
	group   singleflight.Group
}

// New creates a Renderer.
func New(opts Options) (*Renderer, error) {
	r := &Renderer{metrics: opts.Metrics}

	if opts.CacheEnabled {
		cache, err := lrucache.New(opts.CacheSize, opts.CacheCompress)
		if err != nil {
			return nil, fmt.Errorf("creating fragment cache: %w", err)
		}

		r.cache = cache
	}

	return r, nil
}

// Render renders c into a fresh byte slice.
func (r *Renderer) Render(ctx context.Context, name string, c templ.Component) ([]byte, error) {
	locale := i18n.TagFrom(ctx).String()

	span := audit.Span{Kind: audit.KindRender, URL: name}
	ctx = span.Begin(ctx)

	var buf bytes.Buffer

	err := c.Render(ctx, &buf)

	span.End()
	r.metrics.RecordRender(name, locale, span.Duration(), err)

	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}

	return buf.Bytes(), nil
}

// Fragment returns the rendered bytes of a static component, serving them
// from the cache when possible.
//
// c must produce the same output for a given name and locale. Concurrent
// misses for the same key share a single render, which is not cancelled
// when the caller that started it goes away.
func (r *Renderer) Fragment(ctx context.Context, name string, c templ.Component) ([]byte, error) {
	if r.cache == nil {
		return r.Render(ctx, name, c)
	}

	key := name + "@" + i18n.TagFrom(ctx).String()

	if cached, ok := r.cache.Get(key); ok {
		r.metrics.RecordCacheLookup(true)

		return cached, nil
	}

	r.metrics.RecordCacheLookup(false)

	// The shared render outlives any single caller, so it keeps ctx's values
	// but not its cancellation.
	shared := context.WithoutCancel(ctx)

	v, err, _ := r.group.Do(key, func() (any, error) {
		out, err := r.Render(shared, name, c)
		if err != nil {
			return nil, err
		}

		r.cache.Add(key, out)
		r.metrics.SetCacheEntries(r.cache.Len())

		return out, nil
	})
	if err != nil {
		return nil, err
	}

	// Callers sharing a render must not alias one another's slice.
	return bytes.Clone(v.([]byte)), nil
}

// Purge empties the fragment cache.
func (r *Renderer) Purge() {
	if r.cache == nil {
		return
	}

	r.cache.Purge()
	r.metrics.SetCacheEntries(0)
}

// CacheStats reports the fragment cache counters. ok is false when caching is disabled.
func (r *Renderer) CacheStats() (stats lrucache.Stats, ok bool) {
	if r.cache == nil {
		return lrucache.Stats{}, false
	}

	return r.cache.Stats(), true
}

// WriteHTML writes body as an HTML response with the given status code.
func WriteHTML(w http.ResponseWriter, statusCode int, body []byte) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)

	_, err := io.Copy(w, bytes.NewReader(body))

	return err
}
