package services

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/healing-guide-backend/internal/domain"
	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
	"github.com/yungbote/healing-guide-backend/internal/platform/gcp"
	"github.com/yungbote/healing-guide-backend/internal/platform/rediscache"
)

func (f *fixture) leadMagnetService(t *testing.T, cache rediscache.Cache) *leadMagnetService {
	t.Helper()
	store, err := gcp.NewObjectStoreWithConfig(context.Background(), f.log, gcp.ObjectStorageConfig{
		Mode:     gcp.ObjectStorageModeLocal,
		LocalDir: t.TempDir(),
	})
	require.NoError(t, err)
	svc := NewLeadMagnetService(f.log, store, cache, f.newsletter, "").(*leadMagnetService)
	svc.now = fixedClock(october)
	return svc
}

func TestLeadMagnetMissing(t *testing.T) {
	f := newFixture(t)
	svc := f.leadMagnetService(t, rediscache.NewMemory("test"))

	_, _, err := svc.Open(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
	assert.Equal(t, "PDF not found", err.Error())

	noStore := NewLeadMagnetService(f.log, nil, nil, f.newsletter, "")
	_, _, err = noStore.Open(context.Background())
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
	err = noStore.Publish(context.Background(), strings.NewReader("pdf"))
	assert.Equal(t, http.StatusServiceUnavailable, apierr.StatusOf(err))
}

func TestLeadMagnetPublishOpenAndStats(t *testing.T) {
	f := newFixture(t)
	cache := rediscache.NewMemory("test")
	svc := f.leadMagnetService(t, cache)
	ctx := context.Background()

	require.NoError(t, svc.Publish(ctx, strings.NewReader("%PDF-1.4 body")))

	for i := 0; i < 4; i++ {
		obj, name, err := svc.Open(ctx)
		require.NoError(t, err)
		assert.Equal(t, DefaultLeadMagnetKey, name)
		assert.Equal(t, "application/pdf", obj.Attrs.ContentType)
		body, err := io.ReadAll(obj)
		require.NoError(t, err)
		require.NoError(t, obj.Close())
		assert.Equal(t, "%PDF-1.4 body", string(body))
	}

	_, err := f.newsletterService(nil).Subscribe(ctx, "pdf@example.com", "", types.SourceLeadMagnet)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &LeadMagnetStats{
		TotalDownloads:        4,
		ThisMonth:             4,
		LeadMagnetSubscribers: 1,
		ConversionRate:        "25.0%",
		CounterBackend:        "memory",
	}, stats)

	svc.now = fixedClock(october.AddDate(0, 1, 0).Add(time.Hour))
	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalDownloads)
	assert.Zero(t, stats.ThisMonth, "monthly counter rolls over")
}

func TestLeadMagnetStatsWithoutCache(t *testing.T) {
	f := newFixture(t)
	svc := NewLeadMagnetService(f.log, nil, nil, f.newsletter, "")
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "none", stats.CounterBackend)
	assert.Equal(t, "0.0%", stats.ConversionRate)
}
