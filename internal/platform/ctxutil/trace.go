package ctxutil

import (
	"context"
	"net/http"
)

type traceKey struct{}

// Trace identifies one inbound request across logs and outbound calls.
type Trace struct {
	TraceID   string
	RequestID string
}

// Fields returns the non-empty ids as logger key/value pairs.
func (t Trace) Fields() []interface{} {
	var out []interface{}
	if t.TraceID != "" {
		out = append(out, "trace_id", t.TraceID)
	}
	if t.RequestID != "" {
		out = append(out, "request_id", t.RequestID)
	}
	return out
}

func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

func TraceFrom(ctx context.Context) (Trace, bool) {
	if ctx == nil {
		return Trace{}, false
	}
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}

// PropagateRequestID copies the inbound request id onto an outbound request.
func PropagateRequestID(ctx context.Context, h http.Header) {
	if t, ok := TraceFrom(ctx); ok && t.RequestID != "" {
		h.Set("X-Request-Id", t.RequestID)
	}
}

// Default substitutes context.Background for a nil ctx.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
