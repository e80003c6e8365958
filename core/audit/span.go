// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"fmt"
	"runtime/trace"
	"strconv"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/rs/zerolog/log"
)

// Span represents an HTTP request in flight.
type Span struct {
	// only these fields are set automatically
	task     *trace.Task
	start    time.Time
	duration time.Duration
	metric   *servertiming.Metric

	Kind       SpanKind
	RequestID  string
	Method     string
	URL        string
	StatusCode int
	Length     int
	Error      error
}

// SpanKind names what a span measures.
type SpanKind string

// Constants for span kinds.
const (
	// KindRequest is a full user request handled by the server.
	KindRequest SpanKind = "request"
	// KindRender is the rendering of a single view component.
	KindRender SpanKind = "render"
)

// Begin starts timing the span and registers a Server-Timing metric
// if ctx carries a server-timing header.
func (span *Span) Begin(ctx context.Context) context.Context {
	span.start = time.Now()

	ctx, span.task = trace.NewTask(ctx, "dashboard."+string(span.Kind))
	if timing := servertiming.FromContext(ctx); timing != nil {
		span.metric = timing.NewMetric(string(span.Kind))
		span.metric.Desc = span.Method + " " + span.URL
		span.metric.Extra = map[string]string{
			"start": strconv.FormatFloat(float64(span.start.UnixNano())/float64(time.Millisecond), 'f', -1, 64),
		}
	}

	return ctx
}

// End stops the span. Calling End more than once has no effect.
func (span *Span) End() {
	if span.task == nil {
		return
	}

	span.duration = time.Since(span.start)
	span.task.End()

	if span.metric != nil {
		span.metric.Duration = span.duration
	}

	span.task = nil
}

// Duration returns the measured duration, or zero before End.
func (span *Span) Duration() time.Duration {
	return span.duration
}

// Log writes the span to the global logger.
func (span *Span) Log() {
	event := log.Debug()
	if span.Error != nil || span.StatusCode >= 500 {
		event = log.Warn()
	}

	event.
		Str("sys", "http").
		Str("kind", string(span.Kind)).
		Str("method", span.Method).
		Str("url", span.URL).
		Int("status_code", span.StatusCode).
		Str("len", humanizeSize(span.Length)).
		Dur("dur", span.duration).
		Str("request_id", span.RequestID)

	if span.Error != nil {
		event.Err(span.Error)
	}

	event.Send()
}

const (
	bytesInKB = 1024
	bytesInMB = bytesInKB * bytesInKB
)

func humanizeSize(x int) string {
	switch {
	case x < bytesInKB:
		return strconv.Itoa(x)
	case x < bytesInMB:
		return fmt.Sprintf("%.2fK", float64(x)/bytesInKB)
	default:
		return fmt.Sprintf("%.2fM", float64(x)/bytesInMB)
	}
}
