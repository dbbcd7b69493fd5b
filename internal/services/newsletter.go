package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/healing-guide-backend/internal/data/db"
	"github.com/yungbote/healing-guide-backend/internal/data/repos"
	types "github.com/yungbote/healing-guide-backend/internal/domain"
	"github.com/yungbote/healing-guide-backend/internal/observability"
	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
	"github.com/yungbote/healing-guide-backend/internal/platform/dbctx"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
	"github.com/yungbote/healing-guide-backend/internal/platform/sendgrid"
)

const (
	SubscribeCreated       = "created"
	SubscribeReactivated   = "reactivated"
	SubscribeAlreadyActive = "already_active"

	DefaultSubscriptionSource = "unknown"
	LeadMagnetDownloadPath    = "/api/lead-magnet/download"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type SubscribeResult struct {
	Subscription *types.NewsletterSubscription
	Status       string
	Message      string
}

type SubscriptionStatus struct {
	Subscribed       bool       `json:"subscribed"`
	SubscriptionDate *time.Time `json:"subscription_date"`
}

type NewsletterStats struct {
	TotalActiveSubscribers int64  `json:"total_active_subscribers"`
	TotalUnsubscribed      int64  `json:"total_unsubscribed"`
	LeadMagnetSubscribers  int64  `json:"lead_magnet_subscribers"`
	ConversionRate         string `json:"conversion_rate"`
}

// NewsletterService owns the subscription gate.
type NewsletterService interface {
	Subscribe(ctx context.Context, email, name, source string) (*SubscribeResult, error)
	Unsubscribe(ctx context.Context, email string) error
	IsActive(ctx context.Context, email string) (bool, error)
	Status(ctx context.Context, email string) (*SubscriptionStatus, error)
	Stats(ctx context.Context) (*NewsletterStats, error)
}

type NewsletterConfig struct {
	// DownloadURL is the absolute lead-magnet link put in the welcome email.
	DownloadURL  string
	EmailTimeout time.Duration
}

type newsletterService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.NewsletterRepo
	mailer sendgrid.Client
	cfg    NewsletterConfig
	now    func() time.Time
}

// NewNewsletterService wires the gate. mailer may be nil, in which case no welcome email is sent.
func NewNewsletterService(db *gorm.DB, log *logger.Logger, repo repos.NewsletterRepo, mailer sendgrid.Client, cfg NewsletterConfig) NewsletterService {
	if cfg.DownloadURL == "" {
		cfg.DownloadURL = LeadMagnetDownloadPath
	}
	if cfg.EmailTimeout <= 0 {
		cfg.EmailTimeout = 10 * time.Second
	}
	return &newsletterService{
		db:     db,
		log:    log.With("service", "NewsletterService"),
		repo:   repo,
		mailer: mailer,
		cfg:    cfg,
		now:    time.Now,
	}
}

func validateEmail(raw string) (string, error) {
	email := normalizeEmail(raw)
	if email == "" {
		return "", apierr.BadRequest("validation_error", "Email is required")
	}
	if !emailPattern.MatchString(email) {
		return "", apierr.BadRequest("validation_error", "Invalid email format")
	}
	return email, nil
}

func (s *newsletterService) Subscribe(ctx context.Context, rawEmail, name, source string) (*SubscribeResult, error) {
	email, err := validateEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = DefaultSubscriptionSource
	}

	var res *SubscribeResult
	// A concurrent first subscribe can win the unique index; the second pass then sees the row.
	for attempt := 0; attempt < 2; attempt++ {
		res, err = s.subscribeOnce(ctx, email, strings.TrimSpace(name), source)
		if err == nil || !db.IsUniqueViolation(err) {
			break
		}
		s.log.Debug("subscribe raced on unique email; retrying", "email", email)
	}
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		s.log.Error("Subscribe failed", "email", email, "error", err)
		return nil, fmt.Errorf("subscription failed: %w", err)
	}

	observability.Current().IncSubscription(res.Status, source)
	if res.Status != SubscribeAlreadyActive {
		s.sendWelcome(ctx, res.Subscription)
	}
	return res, nil
}

func (s *newsletterService) subscribeOnce(ctx context.Context, email, name, source string) (*SubscribeResult, error) {
	var res *SubscribeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		now := s.now().UTC()

		existing, err := s.repo.GetByEmail(inner, email)
		if err != nil {
			return err
		}
		switch {
		case existing == nil:
			created, err := s.repo.Create(inner, &types.NewsletterSubscription{
				Email:        email,
				Name:         name,
				Source:       source,
				IsActive:     true,
				SubscribedAt: now,
			})
			if err != nil {
				return err
			}
			res = &SubscribeResult{Subscription: created, Status: SubscribeCreated, Message: "Successfully subscribed to newsletter"}
		case existing.IsActive:
			res = &SubscribeResult{Subscription: existing, Status: SubscribeAlreadyActive, Message: "Already subscribed"}
		default:
			if err := s.repo.Activate(inner, existing.ID, source, now); err != nil {
				return err
			}
			existing.IsActive = true
			existing.Source = source
			existing.SubscribedAt = now
			existing.UnsubscribedAt = nil
			res = &SubscribeResult{Subscription: existing, Status: SubscribeReactivated, Message: "Subscription reactivated"}
		}
		return nil
	})
	return res, err
}

func (s *newsletterService) sendWelcome(ctx context.Context, sub *types.NewsletterSubscription) {
	if s.mailer == nil || sub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.EmailTimeout)
	defer cancel()

	greeting := "Hello"
	if sub.Name != "" {
		greeting = "Hello " + sub.Name
	}
	text := fmt.Sprintf("%s,\n\nThank you for joining Your Healing Guide. Your copy of The 13 Ayurvedic Body Types is ready:\n%s\n\nWith warmth,\nDr. Helen Thomas DC\n", greeting, s.cfg.DownloadURL)
	_, err := s.mailer.Send(ctx, sendgrid.Message{
		To:         []sendgrid.Address{{Email: sub.Email, Name: sub.Name}},
		Subject:    "Your guide to the 13 Ayurvedic body types",
		Text:       text,
		Categories: []string{"newsletter", "welcome"},
		CustomArgs: map[string]string{"source": sub.Source},
	})
	if err != nil {
		s.log.Warn("welcome email failed", "email", sub.Email, "error", err)
	}
}

func (s *newsletterService) Unsubscribe(ctx context.Context, rawEmail string) error {
	email := normalizeEmail(rawEmail)
	if email == "" {
		return apierr.BadRequest("validation_error", "Email is required")
	}
	var source string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := s.repo.GetByEmail(inner, email)
		if err != nil {
			return fmt.Errorf("unsubscribe failed: %w", err)
		}
		if existing == nil {
			return apierr.NotFound("not_found", "Email not found in subscription list")
		}
		if err := s.repo.Deactivate(inner, existing.ID, s.now().UTC()); err != nil {
			return fmt.Errorf("unsubscribe failed: %w", err)
		}
		source = existing.Source
		return nil
	})
	if err != nil {
		return err
	}
	observability.Current().IncSubscription("unsubscribed", source)
	return nil
}

func (s *newsletterService) IsActive(ctx context.Context, rawEmail string) (bool, error) {
	email := normalizeEmail(rawEmail)
	if email == "" {
		return false, nil
	}
	sub, err := s.repo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	return sub != nil && sub.IsActive, nil
}

func (s *newsletterService) Status(ctx context.Context, rawEmail string) (*SubscriptionStatus, error) {
	email := normalizeEmail(rawEmail)
	out := &SubscriptionStatus{}
	if email == "" {
		return out, nil
	}
	sub, err := s.repo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, fmt.Errorf("subscription status: %w", err)
	}
	if sub != nil && sub.IsActive {
		at := sub.SubscribedAt
		out.Subscribed = true
		out.SubscriptionDate = &at
	}
	return out, nil
}

func (s *newsletterService) Stats(ctx context.Context) (*NewsletterStats, error) {
	dbc := dbctx.Context{Ctx: ctx}
	active, err := s.repo.CountByActive(dbc, true)
	if err != nil {
		return nil, fmt.Errorf("newsletter stats: %w", err)
	}
	inactive, err := s.repo.CountByActive(dbc, false)
	if err != nil {
		return nil, fmt.Errorf("newsletter stats: %w", err)
	}
	leadMagnet, err := s.repo.CountActiveBySource(dbc, types.SourceLeadMagnet)
	if err != nil {
		return nil, fmt.Errorf("newsletter stats: %w", err)
	}
	return &NewsletterStats{
		TotalActiveSubscribers: active,
		TotalUnsubscribed:      inactive,
		LeadMagnetSubscribers:  leadMagnet,
		ConversionRate:         percent(leadMagnet, active),
	}, nil
}

// percent formats part/whole with one decimal; a zero whole counts as one.
func percent(part, whole int64) string {
	return fmt.Sprintf("%.1f%%", float64(part)/float64(max(whole, 1))*100)
}
