package ctxutil

import (
	"context"
	"net/http"
	"testing"
)

func TestTraceRoundTrip(t *testing.T) {
	if _, ok := TraceFrom(context.Background()); ok {
		t.Fatalf("empty context should carry no trace")
	}
	ctx := WithTrace(context.Background(), Trace{TraceID: "t-1", RequestID: "r-1"})
	tr, ok := TraceFrom(ctx)
	if !ok || tr.TraceID != "t-1" || tr.RequestID != "r-1" {
		t.Fatalf("TraceFrom: got=%+v ok=%v", tr, ok)
	}
	if got := len(tr.Fields()); got != 4 {
		t.Fatalf("Fields: want 4 entries got=%d", got)
	}
	if got := len(Trace{RequestID: "r"}.Fields()); got != 2 {
		t.Fatalf("Fields: want 2 entries got=%d", got)
	}

	h := http.Header{}
	PropagateRequestID(ctx, h)
	if h.Get("X-Request-Id") != "r-1" {
		t.Fatalf("X-Request-Id: got=%q", h.Get("X-Request-Id"))
	}
	h = http.Header{}
	PropagateRequestID(context.Background(), h)
	if len(h) != 0 {
		t.Fatalf("expected no headers, got=%v", h)
	}
}
