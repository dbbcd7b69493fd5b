package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DATABASE_DSN", "REDIS_ADDR", "OPENAI_API_KEY", "ELEVENLABS_API_KEY", "SENDGRID_API_KEY",
		"OBJECT_STORAGE_MODE", "GCS_BUCKET_NAME", "STORAGE_EMULATOR_HOST", "ADMIN_JWT_SECRET",
		"CORS_ALLOWED_ORIGINS", "METRICS_ENABLED", "OTEL_ENABLED", "ELEVENLABS_VOICE_ID",
		"GUIDANCE_DAILY_QUOTA", "GUIDANCE_CACHE_TTL_SECONDS", "PORT",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_MODE", "test")
	t.Chdir(t.TempDir())
}

func TestLoadConfigDefaultsAndEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("GUIDANCE_DAILY_QUOTA", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := LoadConfig(testLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 5, cfg.GuidanceDailyQuota)
	assert.Equal(t, time.Hour, cfg.GuidanceCacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.StrictAnswers)
}

func TestNewServesWithSQLite(t *testing.T) {
	isolateEnv(t)
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "app.db"))
	t.Setenv("OBJECT_STORAGE_LOCAL_DIR", dir)

	log := testLogger(t)
	a, err := New(context.Background(), log)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.Nil(t, a.Clients.LLM)
	assert.Nil(t, a.Clients.Speech)
	assert.Equal(t, "memory", a.Clients.Cache.Backend())

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/questions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Questions []json.RawMessage `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Questions, 10)

	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/newsletter/stats", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "admin routes are disabled without a secret")
}
