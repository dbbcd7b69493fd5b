package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/yungbote/healing-guide-backend/internal/data/repos"
	types "github.com/yungbote/healing-guide-backend/internal/domain"
	"github.com/yungbote/healing-guide-backend/internal/observability"
	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
	"github.com/yungbote/healing-guide-backend/internal/platform/dbctx"
	"github.com/yungbote/healing-guide-backend/internal/platform/gcp"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
	"github.com/yungbote/healing-guide-backend/internal/platform/rediscache"
)

const DefaultLeadMagnetKey = "The_13_Ayurvedic_Body_Types.pdf"

type LeadMagnetStats struct {
	TotalDownloads        int64  `json:"total_downloads"`
	ThisMonth             int64  `json:"this_month"`
	LeadMagnetSubscribers int64  `json:"lead_magnet_subscribers"`
	ConversionRate        string `json:"conversion_rate"`
	CounterBackend        string `json:"counter_backend"`
}

type LeadMagnetService interface {
	// Open streams the PDF; the caller closes it.
	Open(ctx context.Context) (*gcp.Object, string, error)
	Publish(ctx context.Context, r io.Reader) error
	Stats(ctx context.Context) (*LeadMagnetStats, error)
}

type leadMagnetService struct {
	log    *logger.Logger
	store  gcp.ObjectStore
	cache  rediscache.Cache
	repo   repos.NewsletterRepo
	object string
	now    func() time.Time
}

func NewLeadMagnetService(log *logger.Logger, store gcp.ObjectStore, cache rediscache.Cache, repo repos.NewsletterRepo, objectKey string) LeadMagnetService {
	if objectKey == "" {
		objectKey = DefaultLeadMagnetKey
	}
	return &leadMagnetService{
		log:    log.With("service", "LeadMagnetService"),
		store:  store,
		cache:  cache,
		repo:   repo,
		object: objectKey,
		now:    time.Now,
	}
}

func (s *leadMagnetService) monthKey() string {
	return rediscache.Key("leadmagnet", "downloads", s.now().UTC().Format("200601"))
}

var totalDownloadsKey = rediscache.Key("leadmagnet", "downloads", "total")

func (s *leadMagnetService) Open(ctx context.Context) (*gcp.Object, string, error) {
	if s.store == nil {
		return nil, "", apierr.NotFound("not_found", "PDF not found")
	}
	obj, err := s.store.Open(ctx, s.object)
	if errors.Is(err, gcp.ErrObjectNotFound) {
		s.log.Warn("lead magnet missing from object store", "key", s.object, "mode", s.store.Mode())
		return nil, "", apierr.NotFound("not_found", "PDF not found")
	}
	if err != nil {
		return nil, "", fmt.Errorf("open lead magnet: %w", err)
	}

	observability.Current().IncDownload()
	if s.cache != nil {
		if _, err := s.cache.Incr(ctx, totalDownloadsKey, 0); err != nil {
			s.log.Warn("download counter failed", "error", err)
		}
		if _, err := s.cache.Incr(ctx, s.monthKey(), 40*24*time.Hour); err != nil {
			s.log.Warn("monthly download counter failed", "error", err)
		}
	}
	return obj, s.object, nil
}

func (s *leadMagnetService) Publish(ctx context.Context, r io.Reader) error {
	if s.store == nil {
		return apierr.Unavailable("storage_not_configured", "object storage not configured")
	}
	if err := s.store.Upload(ctx, s.object, r); err != nil {
		return fmt.Errorf("upload lead magnet: %w", err)
	}
	s.log.Info("lead magnet published", "key", s.object, "mode", s.store.Mode())
	return nil
}

func (s *leadMagnetService) Stats(ctx context.Context) (*LeadMagnetStats, error) {
	out := &LeadMagnetStats{CounterBackend: "none"}
	if s.cache != nil {
		out.CounterBackend = s.cache.Backend()
		total, err := s.cache.Counter(ctx, totalDownloadsKey)
		if err != nil {
			return nil, fmt.Errorf("download counter: %w", err)
		}
		month, err := s.cache.Counter(ctx, s.monthKey())
		if err != nil {
			return nil, fmt.Errorf("monthly download counter: %w", err)
		}
		out.TotalDownloads, out.ThisMonth = total, month
	}
	subs, err := s.repo.CountActiveBySource(dbctx.Context{Ctx: ctx}, types.SourceLeadMagnet)
	if err != nil {
		return nil, fmt.Errorf("lead magnet subscribers: %w", err)
	}
	out.LeadMagnetSubscribers = subs
	out.ConversionRate = percent(subs, out.TotalDownloads)
	return out, nil
}
