package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/healing-guide-backend/internal/data/repos"
	types "github.com/yungbote/healing-guide-backend/internal/domain"
	"github.com/yungbote/healing-guide-backend/internal/observability"
	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
	"github.com/yungbote/healing-guide-backend/internal/platform/dbctx"
)

func TestSubscribeLifecycle(t *testing.T) {
	f := newFixture(t)
	mailer := &fakeMailer{}
	svc := f.newsletterService(mailer)
	ctx := context.Background()

	first, err := svc.Subscribe(ctx, "  Reader@Example.com ", "Ann", "website")
	require.NoError(t, err)
	assert.Equal(t, SubscribeCreated, first.Status)
	assert.Equal(t, "reader@example.com", first.Subscription.Email)
	assert.Equal(t, 1, mailer.count())

	again, err := svc.Subscribe(ctx, "reader@example.com", "", "website")
	require.NoError(t, err)
	assert.Equal(t, SubscribeAlreadyActive, again.Status)
	assert.Equal(t, "Already subscribed", again.Message)
	assert.Equal(t, first.Subscription.ID, again.Subscription.ID)
	assert.Equal(t, 1, mailer.count(), "no welcome email for an active subscriber")

	var rows int64
	require.NoError(t, f.db.Model(&types.NewsletterSubscription{}).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	require.NoError(t, svc.Unsubscribe(ctx, "READER@example.com"))
	active, err := svc.IsActive(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.False(t, active)

	back, err := svc.Subscribe(ctx, "reader@example.com", "", types.SourceLeadMagnet)
	require.NoError(t, err)
	assert.Equal(t, SubscribeReactivated, back.Status)
	assert.Equal(t, first.Subscription.ID, back.Subscription.ID)
	assert.Equal(t, 2, mailer.count())

	active, err = svc.IsActive(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.True(t, active)
}

func TestSubscribeValidation(t *testing.T) {
	svc := newFixture(t).newsletterService(nil)
	for _, email := range []string{"", "   ", "not-an-email", "a@b", "a b@c.d"} {
		_, err := svc.Subscribe(context.Background(), email, "", "")
		require.Error(t, err, email)
		assert.Equal(t, http.StatusBadRequest, apierr.StatusOf(err), email)
	}
}

func TestSubscribeDefaultSourceAndMailerFailure(t *testing.T) {
	f := newFixture(t)
	mailer := &fakeMailer{err: errors.New("sendgrid down")}
	svc := f.newsletterService(mailer)

	res, err := svc.Subscribe(context.Background(), "x@example.com", "", "")
	require.NoError(t, err, "welcome email failures do not fail the subscription")
	assert.Equal(t, DefaultSubscriptionSource, res.Subscription.Source)
	assert.Equal(t, 1, mailer.count())
	assert.Contains(t, mailer.sent[0].Text, "https://example.com/api/lead-magnet/download")
}

func TestUnsubscribeUnknown(t *testing.T) {
	svc := newFixture(t).newsletterService(nil)
	err := svc.Unsubscribe(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
	assert.Equal(t, "Email not found in subscription list", err.Error())
}

// cancelAfterDeactivate cancels the request context once the row is updated, so the
// surrounding transaction fails at commit.
type cancelAfterDeactivate struct {
	repos.NewsletterRepo
	cancel context.CancelFunc
}

func (r cancelAfterDeactivate) Deactivate(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	err := r.NewsletterRepo.Deactivate(dbc, id, at)
	r.cancel()
	return err
}

func unsubscribedCount(t *testing.T, source string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, observability.Current().WritePrometheus(&buf))
	prefix := `hg_newsletter_subscriptions_total{outcome="unsubscribed",source="` + source + `"} `
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix)
		}
	}
	return ""
}

func TestUnsubscribeCountsOnlyCommitted(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "true")
	require.NotNil(t, observability.Init(nil))

	f := newFixture(t)
	ctx := context.Background()
	source := "commit-test-" + uuid.NewString()[:8]
	_, err := f.newsletterService(nil).Subscribe(ctx, "commit@example.com", "", source)
	require.NoError(t, err)

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	failing := NewNewsletterService(f.db, f.log, cancelAfterDeactivate{NewsletterRepo: f.newsletter, cancel: cancel}, nil, NewsletterConfig{})
	require.Error(t, failing.Unsubscribe(reqCtx, "commit@example.com"))
	assert.Empty(t, unsubscribedCount(t, source), "rolled-back unsubscribe must not be counted")

	active, err := f.newsletterService(nil).IsActive(ctx, "commit@example.com")
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, f.newsletterService(nil).Unsubscribe(ctx, "commit@example.com"))
	assert.Equal(t, "1.000000", unsubscribedCount(t, source))
}

func TestNewsletterStatusAndStats(t *testing.T) {
	f := newFixture(t)
	svc := f.newsletterService(nil)
	ctx := context.Background()

	st, err := svc.Status(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, st.Subscribed)
	assert.Nil(t, st.SubscriptionDate)

	for _, s := range []struct{ email, source string }{
		{"a@example.com", types.SourceLeadMagnet},
		{"b@example.com", "website"},
		{"c@example.com", "website"},
	} {
		_, err := svc.Subscribe(ctx, s.email, "", s.source)
		require.NoError(t, err)
	}
	require.NoError(t, svc.Unsubscribe(ctx, "c@example.com"))

	st, err = svc.Status(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, st.Subscribed)
	assert.NotNil(t, st.SubscriptionDate)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &NewsletterStats{
		TotalActiveSubscribers: 2,
		TotalUnsubscribed:      1,
		LeadMagnetSubscribers:  1,
		ConversionRate:         "50.0%",
	}, stats)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "0.0%", percent(0, 0))
	assert.Equal(t, "33.3%", percent(1, 3))
	assert.Equal(t, "100.0%", percent(4, 4))
}
