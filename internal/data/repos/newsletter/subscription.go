package newsletter

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/healing-guide-backend/internal/domain"
	"github.com/yungbote/healing-guide-backend/internal/platform/dbctx"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

type SubscriptionRepo interface {
	GetByEmail(dbc dbctx.Context, email string) (*types.NewsletterSubscription, error)
	Create(dbc dbctx.Context, s *types.NewsletterSubscription) (*types.NewsletterSubscription, error)
	// Activate reactivates an existing row in place, keeping its ID.
	Activate(dbc dbctx.Context, id uuid.UUID, source string, at time.Time) error
	Deactivate(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	CountByActive(dbc dbctx.Context, active bool) (int64, error)
	CountActiveBySource(dbc dbctx.Context, source string) (int64, error)
}

type subscriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) SubscriptionRepo {
	return &subscriptionRepo{db: db, log: baseLog.With("repo", "SubscriptionRepo")}
}

func (r *subscriptionRepo) GetByEmail(dbc dbctx.Context, email string) (*types.NewsletterSubscription, error) {
	var s types.NewsletterSubscription
	err := dbc.DB(r.db).Where("email = ?", email).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *subscriptionRepo) Create(dbc dbctx.Context, s *types.NewsletterSubscription) (*types.NewsletterSubscription, error) {
	if err := dbc.DB(r.db).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *subscriptionRepo) Activate(dbc dbctx.Context, id uuid.UUID, source string, at time.Time) error {
	return dbc.DB(r.db).
		Model(&types.NewsletterSubscription{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":       true,
			"source":          source,
			"subscribed_at":   at,
			"unsubscribed_at": nil,
		}).Error
}

func (r *subscriptionRepo) Deactivate(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	return dbc.DB(r.db).
		Model(&types.NewsletterSubscription{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":       false,
			"unsubscribed_at": at,
		}).Error
}

func (r *subscriptionRepo) CountByActive(dbc dbctx.Context, active bool) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.NewsletterSubscription{}).
		Where("is_active = ?", active).
		Count(&n).Error
	return n, err
}

func (r *subscriptionRepo) CountActiveBySource(dbc dbctx.Context, source string) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.NewsletterSubscription{}).
		Where("source = ? AND is_active = ?", source, true).
		Count(&n).Error
	return n, err
}
