package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/questions", "200", time.Millisecond)
	m.ObserveLLMRequest("gpt", "/v1/responses", "200", time.Second, 10, 20)
	m.IncSubscription("created", "lead_magnet")
	m.IncGuidance("engine", true)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestWritePrometheus(t *testing.T) {
	m := newMetrics()
	m.ObserveAPI("POST", "/api/ask", "503", 20*time.Millisecond)
	m.IncSubscription("reactivated", "website")
	m.IncAssessment("vata-pitta")
	m.IncGuidance("llm", false)
	m.ObserveSpeechRequest("tts", "200", time.Second, 42)

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`hg_api_requests_total{method="POST",route="/api/ask",status="503"} 1.000000`,
		`hg_api_requests_error_total 1.000000`,
		`hg_newsletter_subscriptions_total{outcome="reactivated",source="website"} 1.000000`,
		`hg_assessments_total{constitution="vata-pitta"} 1.000000`,
		`hg_guidance_answers_total{source="llm",cache="miss"} 1.000000`,
		`hg_speech_characters_total 42.000000`,
		`hg_api_request_duration_seconds_bucket{method="POST",route="/api/ask",status="503",le="0.025"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q\n%s", want, out)
		}
	}
}

func TestLabelString(t *testing.T) {
	got := labelString([]string{"a", "b"}, []string{`x"y`})
	want := `{a="x\"y",b="unknown"}`
	if got != want {
		t.Fatalf("labelString got=%s want=%s", got, want)
	}
}
