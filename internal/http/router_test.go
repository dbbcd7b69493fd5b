package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/healing-guide-backend/internal/data/repos"
	"github.com/yungbote/healing-guide-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/healing-guide-backend/internal/http/handlers"
	httpMW "github.com/yungbote/healing-guide-backend/internal/http/middleware"
	"github.com/yungbote/healing-guide-backend/internal/knowledge"
	"github.com/yungbote/healing-guide-backend/internal/platform/elevenlabs"
	"github.com/yungbote/healing-guide-backend/internal/platform/gcp"
	"github.com/yungbote/healing-guide-backend/internal/platform/openai"
	"github.com/yungbote/healing-guide-backend/internal/platform/rediscache"
	"github.com/yungbote/healing-guide-backend/internal/services"
)

const adminSecret = "router-test-secret"

type stubLLM struct {
	text string
	err  error
}

func (s *stubLLM) GenerateText(context.Context, string, string) (string, error) {
	return s.text, s.err
}

type testEnv struct {
	router     *gin.Engine
	leadMagnet services.LeadMagnetService
	ttsStatus  int
}

func newTestEnv(t *testing.T, llm openai.Client) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{ttsStatus: http.StatusOK}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/v1/text-to-speech/"):
			if env.ttsStatus != http.StatusOK {
				w.WriteHeader(env.ttsStatus)
				_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
				return
			}
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("ID3-fake-mp3"))
		case r.URL.Path == "/v1/voices/add":
			_, _ = w.Write([]byte(`{"voice_id":"new-voice"}`))
		case strings.HasSuffix(r.URL.Path, "/settings/edit"):
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	kb := knowledge.MustDefault()
	userRepo := repos.NewUserRepo(gdb, log)
	assessmentRepo := repos.NewAssessmentRepo(gdb, log)
	newsletterRepo := repos.NewNewsletterRepo(gdb, log)

	speechClient, err := elevenlabs.New(log, elevenlabs.Config{APIKey: "test", BaseURL: upstream.URL, MaxRetries: 0})
	require.NoError(t, err)
	store, err := gcp.NewObjectStoreWithConfig(context.Background(), log, gcp.ObjectStorageConfig{
		Mode:     gcp.ObjectStorageModeLocal,
		LocalDir: t.TempDir(),
	})
	require.NoError(t, err)
	cache := rediscache.NewMemory("test")

	newsletter := services.NewNewsletterService(gdb, log, newsletterRepo, nil, services.NewsletterConfig{})
	assessments := services.NewAssessmentService(gdb, log, kb, assessmentRepo, userRepo, false)
	users := services.NewUserService(gdb, log, userRepo)
	guidance := services.NewGuidanceService(log, kb, newsletter, assessments, userRepo, llm, cache, services.GuidanceConfig{})
	env.leadMagnet = services.NewLeadMagnetService(log, store, cache, newsletterRepo, "")

	env.router = NewRouter(RouterConfig{
		Log:               log,
		AdminAuth:         httpMW.NewAdminAuth(log, adminSecret),
		HealthHandler:     httpH.NewHealthHandler(gdb),
		AssessmentHandler: httpH.NewAssessmentHandler(assessments),
		NewsletterHandler: httpH.NewNewsletterHandler(newsletter),
		GuidanceHandler:   httpH.NewGuidanceHandler(guidance),
		KnowledgeHandler:  httpH.NewKnowledgeHandler(services.NewKnowledgeService(kb)),
		VoiceHandler:      httpH.NewVoiceHandler(log, services.NewSpeechService(log, kb, speechClient, services.DefaultVoiceID)),
		LeadMagnetHandler: httpH.NewLeadMagnetHandler(log, env.leadMagnet),
		UserHandler:       httpH.NewUserHandler(users),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthcheck(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestQuizFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/questions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["questions"], 10)

	rec = env.do(t, http.MethodPost, "/api/submit", gin.H{"answers": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No answers provided", decode(t, rec)["error"])

	answers := []gin.H{}
	for i := 1; i <= 10; i++ {
		answers = append(answers, gin.H{"question_id": i, "option_index": 2})
	}
	rec = env.do(t, http.MethodPost, "/api/submit", gin.H{"answers": answers, "email": "quiz@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	result := body["constitution"].(map[string]any)
	assert.Equal(t, "kapha", result["constitution"])
	assert.EqualValues(t, 30, result["scores"].(map[string]any)["kapha"])

	id := body["assessment_id"].(string)
	rec = env.do(t, http.MethodGet, "/api/assessments/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "kapha", decode(t, rec)["assessment"].(map[string]any)["constitution"])

	rec = env.do(t, http.MethodGet, "/api/assessments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitSkipsAnswersWithoutOption(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/submit", gin.H{"answers": []gin.H{
		{"question_id": 1},
		{"question_id": 2},
		{"question_id": 3, "option_index": 1},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode(t, rec)["constitution"].(map[string]any)
	assert.EqualValues(t, 2, result["ignored_answers"])
	scores := result["scores"].(map[string]any)
	assert.EqualValues(t, 0, scores["vata"])
	assert.EqualValues(t, 3, scores["pitta"])
	assert.Equal(t, "pitta", result["constitution"])
}

func TestAskGate(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, body := range []gin.H{
		{"query": "How do I sleep?", "email": "nobody@example.com"},
		{"query": "", "email": "nobody@example.com"},
		{"query": 42, "email": "nobody@example.com"},
		{},
	} {
		rec := env.do(t, http.MethodPost, "/api/ask", body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Subscription required", decode(t, rec)["error"])
	}

	rec := env.do(t, http.MethodPost, "/api/newsletter/subscribe", gin.H{"email": "Reader@Example.com", "source": "website"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.SubscribeCreated, decode(t, rec)["status"])

	rec = env.do(t, http.MethodPost, "/api/newsletter/subscribe", gin.H{"email": "reader@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Already subscribed", decode(t, rec)["message"])

	rec = env.do(t, http.MethodGet, "/api/subscription-status/reader@example.com", nil)
	assert.Equal(t, true, decode(t, rec)["subscribed"])

	rec = env.do(t, http.MethodPost, "/api/ask", gin.H{"query": "  ", "email": "reader@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/ask", gin.H{"query": 42, "email": "reader@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	bad := decode(t, rec)
	assert.Equal(t, "invalid_request", bad["code"])
	assert.Contains(t, bad["error"], "query")

	rec = env.do(t, http.MethodPost, "/api/ask", gin.H{"query": "What should I eat in autumn?", "email": "reader@example.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, services.GuidanceSourceEngine, body["source"])
	assert.NotEmpty(t, body["response"].(map[string]any)["answer"])
	assert.NotEmpty(t, body["user_context"].(map[string]any)["season"])

	rec = env.do(t, http.MethodPost, "/api/newsletter/unsubscribe", gin.H{"email": "reader@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/ask", gin.H{"query": "hello", "email": "reader@example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAskLLMFailureIsFallback(t *testing.T) {
	env := newTestEnv(t, &stubLLM{err: errors.New("upstream timeout")})
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/newsletter/subscribe", gin.H{"email": "a@example.com"}).Code)

	rec := env.do(t, http.MethodPost, "/api/ask", gin.H{"query": "Help with digestion", "email": "a@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, services.GuidanceSourceFallback, body["source"])
	assert.Contains(t, body["response"].(map[string]any)["error"], "upstream timeout")
}

func TestKnowledgeRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{
		"/api/constitutional-analysis/martian",
		"/api/planetary-guidance/pluto",
		"/api/seasonal-recommendations?season=monsoon",
	} {
		rec := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, false, decode(t, rec)["success"])
	}

	rec := env.do(t, http.MethodGet, "/api/constitutional-analysis/pitta-kapha?symptoms=heartburn,congestion", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["analysis"], "symptom_analysis")

	rec = env.do(t, http.MethodGet, "/api/planetary-guidance/Mars?constitution=pitta", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/seasonal-recommendations?season=winter&constitution=vata", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/guidance/seasonal", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/knowledge/constitutions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 13, decode(t, rec)["catalog"].(map[string]any)["total"])

	rec = env.do(t, http.MethodPost, "/api/avatar/contextual-script", gin.H{"context": "nope"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "welcome", decode(t, rec)["context"])

	rec = env.do(t, http.MethodPost, "/api/avatar-script", gin.H{"response_text": "A. B. C"})
	require.Equal(t, http.StatusOK, rec.Code)
	script := decode(t, rec)["script"].(map[string]any)
	assert.Equal(t, []any{float64(3), float64(6)}, script["pause_points"])

	rec = env.do(t, http.MethodPost, "/api/avatar/speak", gin.H{"type": "energy"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "energy", decode(t, rec)["type"])
}

func TestGenerateSpeech(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/voice-cloning/generate-speech", gin.H{"text": "Welcome."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ID3-fake-mp3", rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/voice-cloning/generate-speech", gin.H{"text": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.ttsStatus = http.StatusUnauthorized
	rec = env.do(t, http.MethodPost, "/api/voice-cloning/generate-speech", gin.H{"text": "Welcome."})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "ElevenLabs API error: 401")
}

func TestUploadVoiceSample(t *testing.T) {
	env := newTestEnv(t, nil)

	upload := func(filename string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("RIFF....WAVE"))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/voice-cloning/upload-voice-sample", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("sample.txt")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload("helen.wav")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "new-voice", decode(t, rec)["voice_id"])
}

func TestLeadMagnetRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/lead-magnet/download", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PDF not found", decode(t, rec)["error"])

	require.NoError(t, env.leadMagnet.Publish(context.Background(), strings.NewReader("%PDF-1.7")))
	rec = env.do(t, http.MethodGet, "/api/lead-magnet/download", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), services.DefaultLeadMagnetKey)
	assert.Equal(t, "%PDF-1.7", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/lead-magnet/stats", nil).Code)

	token, err := httpMW.IssueAdminToken(adminSecret, "ops", time.Hour)
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/api/lead-magnet/stats", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["stats"].(map[string]any)["total_downloads"])

	rec = env.do(t, http.MethodGet, "/api/newsletter/stats", nil, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.0%", decode(t, rec)["stats"].(map[string]any)["conversion_rate"])
}

func TestUserRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/users", gin.H{"email": "u@example.com", "name": "U", "age": 30})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec)["user"].(map[string]any)["id"].(string)

	rec = env.do(t, http.MethodPost, "/api/users", gin.H{"email": "u@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/users/"+id, gin.H{"name": "Updated"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Updated", decode(t, rec)["user"].(map[string]any)["name"])

	rec = env.do(t, http.MethodGet, "/api/users", nil)
	assert.Len(t, decode(t, rec)["users"], 1)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/users/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/users/"+id, nil).Code)
}
