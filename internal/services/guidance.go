package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/healing-guide-backend/internal/data/repos"
	"github.com/yungbote/healing-guide-backend/internal/knowledge"
	"github.com/yungbote/healing-guide-backend/internal/modules/guidance"
	"github.com/yungbote/healing-guide-backend/internal/observability"
	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
	"github.com/yungbote/healing-guide-backend/internal/platform/dbctx"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
	"github.com/yungbote/healing-guide-backend/internal/platform/openai"
	"github.com/yungbote/healing-guide-backend/internal/platform/rediscache"
)

const (
	GuidanceSourceLLM      = "llm"
	GuidanceSourceEngine   = "engine"
	GuidanceSourceFallback = "fallback"
)

type AskInput struct {
	Query    string
	Email    string
	UserID   *uuid.UUID
	Symptoms []string
	// DecodeErr is a request-body error, reported only to active subscribers.
	DecodeErr error
}

type UserContext struct {
	Constitution *string `json:"constitution"`
	Age          *int    `json:"age"`
	Season       string  `json:"season"`
	LifeStage    *string `json:"life_stage"`
}

type AskResult struct {
	Response    guidance.Answer `json:"response"`
	UserContext UserContext     `json:"user_context"`
	Source      string          `json:"source"`
	Cached      bool            `json:"cached"`
}

type GuidanceConfig struct {
	CacheTTL time.Duration
	// DailyQuota caps questions per email per UTC day; zero disables the cap.
	DailyQuota int
}

type GuidanceService interface {
	Ask(ctx context.Context, in AskInput) (*AskResult, error)
}

type guidanceService struct {
	log         *logger.Logger
	kb          *knowledge.KB
	newsletter  NewsletterService
	assessments AssessmentService
	userRepo    repos.UserRepo
	llm         openai.Client
	cache       rediscache.Cache
	cfg         GuidanceConfig
	now         func() time.Time
}

// NewGuidanceService answers gated questions. llm and cache are optional: without an LLM the
// rule engine answers, without a cache nothing is memoized and no quota applies.
func NewGuidanceService(
	log *logger.Logger,
	kb *knowledge.KB,
	newsletter NewsletterService,
	assessments AssessmentService,
	userRepo repos.UserRepo,
	llm openai.Client,
	cache rediscache.Cache,
	cfg GuidanceConfig,
) GuidanceService {
	return &guidanceService{
		log:         log.With("service", "GuidanceService"),
		kb:          kb,
		newsletter:  newsletter,
		assessments: assessments,
		userRepo:    userRepo,
		llm:         llm,
		cache:       cache,
		cfg:         cfg,
		now:         time.Now,
	}
}

func (s *guidanceService) Ask(ctx context.Context, in AskInput) (*AskResult, error) {
	email := normalizeEmail(in.Email)
	active, err := s.newsletter.IsActive(ctx, email)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, apierr.Forbidden("subscription_required", "Subscription required")
	}

	if in.DecodeErr != nil {
		return nil, apierr.BadRequest("invalid_request", in.DecodeErr.Error())
	}
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return nil, apierr.BadRequest("validation_error", "Query is required")
	}

	if err := s.checkQuota(ctx, email); err != nil {
		return nil, err
	}

	var (
		age          *int
		constitution string
	)
	g, gctx := errgroup.WithContext(ctx)
	if in.UserID != nil && *in.UserID != uuid.Nil {
		g.Go(func() error {
			u, err := s.userRepo.GetByID(dbctx.Context{Ctx: gctx}, *in.UserID)
			if err != nil {
				return fmt.Errorf("load user: %w", err)
			}
			if u != nil {
				age = u.Age
			}
			return nil
		})
	}
	g.Go(func() error {
		a, err := s.assessments.LatestFor(gctx, in.UserID, email)
		if err != nil {
			return err
		}
		if a != nil {
			constitution = a.Constitution
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Error("resolving asker context failed", "error", err)
		return nil, err
	}

	now := s.now()
	gc := guidance.Context{
		Constitution: constitution,
		Age:          age,
		Season:       knowledge.SeasonAt(now),
		LifeStage:    s.kb.LifeStageName(age),
	}
	uc := UserContext{Age: age, Season: gc.Season}
	if constitution != "" {
		uc.Constitution = &constitution
	}
	if age != nil {
		ls := gc.LifeStage
		uc.LifeStage = &ls
	}

	mode := GuidanceSourceEngine
	if s.llm != nil {
		mode = GuidanceSourceLLM
	}
	key := cacheKey(mode, query, in.Symptoms, gc)

	if s.cache != nil && s.cfg.CacheTTL > 0 {
		var hit guidance.Answer
		found, err := s.cache.GetJSON(ctx, key, &hit)
		if err != nil {
			s.log.Warn("guidance cache read failed", "error", err)
		} else if found {
			observability.Current().IncGuidance(mode, true)
			return &AskResult{Response: hit, UserContext: uc, Source: mode, Cached: true}, nil
		}
	}

	answer, source := s.answer(ctx, query, in.Symptoms, gc, now)
	observability.Current().IncGuidance(source, false)

	if source != GuidanceSourceFallback && s.cache != nil && s.cfg.CacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, key, answer, s.cfg.CacheTTL); err != nil {
			s.log.Warn("guidance cache write failed", "error", err)
		}
	}
	return &AskResult{Response: answer, UserContext: uc, Source: source}, nil
}

func (s *guidanceService) answer(ctx context.Context, query string, symptoms []string, gc guidance.Context, now time.Time) (guidance.Answer, string) {
	analysis := guidance.Analyze(s.kb, query)
	if s.llm == nil {
		return guidance.Compose(s.kb, query, analysis, gc), GuidanceSourceEngine
	}

	if len(symptoms) == 0 {
		symptoms = analysis.Symptoms
	}
	system, err := guidance.BuildSystemPrompt(s.kb, gc)
	if err != nil {
		s.log.Error("system prompt render failed", "error", err)
		return guidance.EngineFailureAnswer(s.kb, query, gc, err), GuidanceSourceFallback
	}
	user, err := guidance.BuildUserPrompt(query, symptoms, map[string]any{
		"subscription_type": "premium",
		"life_stage":        gc.LifeStage,
	})
	if err != nil {
		s.log.Error("user prompt render failed", "error", err)
		return guidance.EngineFailureAnswer(s.kb, query, gc, err), GuidanceSourceFallback
	}

	text, err := s.llm.GenerateText(ctx, system, user)
	if err != nil {
		s.log.Warn("LLM request failed; serving fallback answer", "error", err)
		return guidance.FallbackAnswer(s.kb, query, gc, err), GuidanceSourceFallback
	}
	return guidance.StructureLLMAnswer(s.kb, text, gc, now), GuidanceSourceLLM
}

func (s *guidanceService) checkQuota(ctx context.Context, email string) error {
	if s.cache == nil || s.cfg.DailyQuota <= 0 {
		return nil
	}
	day := s.now().UTC().Format("20060102")
	n, err := s.cache.Incr(ctx, rediscache.Key("quota", "ask", email, day), 24*time.Hour)
	if err != nil {
		// fail open
		s.log.Warn("quota counter unavailable", "error", err)
		return nil
	}
	if n > int64(s.cfg.DailyQuota) {
		return apierr.TooManyRequests("quota_exceeded", "Daily question limit reached")
	}
	return nil
}

func cacheKey(mode, query string, symptoms []string, gc guidance.Context) string {
	age := ""
	if gc.Age != nil {
		age = strconv.Itoa(*gc.Age)
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		mode,
		strings.ToLower(query),
		gc.Constitution,
		age,
		gc.Season,
		strings.ToLower(strings.Join(symptoms, ",")),
	}, "\x00")))
	return rediscache.Key("guidance", hex.EncodeToString(sum[:16]))
}
