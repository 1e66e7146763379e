package logging

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// NewCloudTraceHandler wraps base so records logged with a span in the context
// are correlated with that trace in Google Cloud Logging
//
// NOTE: Only the *Context slog methods carry the span
func NewCloudTraceHandler(base slog.Handler, project string) slog.Handler {
	if project == "" {
		return base
	}
	return &cloudTraceHandler{base: base, project: project}
}

type cloudTraceHandler struct {
	base    slog.Handler
	project string
}

func (h *cloudTraceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *cloudTraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		// https://docs.cloud.google.com/logging/docs/agent/logging/configuration#special-fields
		r.AddAttrs(
			slog.String("logging.googleapis.com/trace", fmt.Sprintf("projects/%s/traces/%s", h.project, sc.TraceID().String())),
			slog.String("logging.googleapis.com/spanId", sc.SpanID().String()),
			slog.Bool("logging.googleapis.com/trace_sampled", sc.TraceFlags().IsSampled()),
		)
	}
	return h.base.Handle(ctx, r)
}

func (h *cloudTraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &cloudTraceHandler{base: h.base.WithAttrs(attrs), project: h.project}
}

func (h *cloudTraceHandler) WithGroup(name string) slog.Handler {
	return &cloudTraceHandler{base: h.base.WithGroup(name), project: h.project}
}

var _ slog.Handler = (*cloudTraceHandler)(nil)
