package newsletter

import (
	"testing"
	"time"

	"github.com/yungbote/healing-guide-backend/internal/data/db"
	"github.com/yungbote/healing-guide-backend/internal/data/repos/testutil"
	types "github.com/yungbote/healing-guide-backend/internal/domain"
)

func TestSubscriptionRepo(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := testutil.DBC(tx)

	repo := NewSubscriptionRepo(gdb, testutil.Logger(t))
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	s, err := repo.Create(dbc, &types.NewsletterSubscription{
		Email:        "reader@example.com",
		Source:       "website",
		IsActive:     true,
		SubscribedAt: now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := s.ID

	if err := repo.Deactivate(dbc, id, now.Add(time.Hour)); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	got, err := repo.GetByEmail(dbc, "reader@example.com")
	if err != nil || got == nil {
		t.Fatalf("GetByEmail: got=%+v err=%v", got, err)
	}
	if got.IsActive || got.UnsubscribedAt == nil {
		t.Fatalf("Deactivate: unexpected state: %+v", got)
	}

	if err := repo.Activate(dbc, id, types.SourceLeadMagnet, now.Add(2*time.Hour)); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	got, err = repo.GetByEmail(dbc, "reader@example.com")
	if err != nil || got == nil {
		t.Fatalf("GetByEmail: got=%+v err=%v", got, err)
	}
	if got.ID != id || !got.IsActive || got.UnsubscribedAt != nil || got.Source != types.SourceLeadMagnet {
		t.Fatalf("Activate: unexpected state: %+v", got)
	}

	_, err = repo.Create(dbc, &types.NewsletterSubscription{Email: "reader@example.com", Source: "x", IsActive: true, SubscribedAt: now})
	if !db.IsUniqueViolation(err) {
		t.Fatalf("Create duplicate: want unique violation, got %v", err)
	}
}

func TestSubscriptionRepoCounts(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	dbc := testutil.DBC(tx)
	repo := NewSubscriptionRepo(gdb, testutil.Logger(t))
	now := time.Now().UTC()

	before, err := repo.CountByActive(dbc, true)
	if err != nil {
		t.Fatalf("CountByActive: %v", err)
	}
	beforeLM, err := repo.CountActiveBySource(dbc, types.SourceLeadMagnet)
	if err != nil {
		t.Fatalf("CountActiveBySource: %v", err)
	}

	for _, s := range []*types.NewsletterSubscription{
		{Email: "count-a@example.com", Source: types.SourceLeadMagnet, IsActive: true, SubscribedAt: now},
		{Email: "count-b@example.com", Source: "website", IsActive: true, SubscribedAt: now},
		{Email: "count-c@example.com", Source: types.SourceLeadMagnet, IsActive: false, SubscribedAt: now},
	} {
		if _, err := repo.Create(dbc, s); err != nil {
			t.Fatalf("Create %s: %v", s.Email, err)
		}
	}

	after, _ := repo.CountByActive(dbc, true)
	afterLM, _ := repo.CountActiveBySource(dbc, types.SourceLeadMagnet)
	if after-before != 2 {
		t.Fatalf("CountByActive delta got=%d want=2", after-before)
	}
	if afterLM-beforeLM != 1 {
		t.Fatalf("CountActiveBySource delta got=%d want=1", afterLM-beforeLM)
	}
}
