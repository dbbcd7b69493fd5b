package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/healing-guide-backend/internal/platform/elevenlabs"
	"github.com/yungbote/healing-guide-backend/internal/platform/gcp"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
	"github.com/yungbote/healing-guide-backend/internal/platform/openai"
	"github.com/yungbote/healing-guide-backend/internal/platform/rediscache"
	"github.com/yungbote/healing-guide-backend/internal/platform/sendgrid"
)

// Clients holds outbound integrations. A nil client means the integration is not configured.
type Clients struct {
	LLM    openai.Client
	Speech elevenlabs.Client
	Mailer sendgrid.Client
	Cache  rediscache.Cache
	Store  gcp.ObjectStore
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	llm, err := openai.NewFromEnv(log)
	switch {
	case errors.Is(err, openai.ErrNotConfigured):
		log.Warn("OpenAI not configured; guidance uses the rule engine")
		llm = nil
	case err != nil:
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	speech, err := elevenlabs.NewFromEnv(log)
	switch {
	case errors.Is(err, elevenlabs.ErrNotConfigured):
		log.Warn("ElevenLabs not configured; voice endpoints return 503")
		speech = nil
	case err != nil:
		return Clients{}, fmt.Errorf("init elevenlabs client: %w", err)
	}

	mailer, err := sendgrid.NewFromEnv(log)
	switch {
	case errors.Is(err, sendgrid.ErrNotConfigured):
		log.Warn("SendGrid not configured; welcome emails disabled")
		mailer = nil
	case err != nil:
		return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
	}

	cache, err := rediscache.NewFromEnv(log)
	if err != nil {
		log.Warn("Redis unavailable; falling back to in-process cache", "error", err)
		cache = rediscache.NewMemory(rediscache.ConfigFromEnv().Prefix)
	}

	store, err := resolveObjectStore(ctx, log, cfg)
	if err != nil {
		_ = cache.Close()
		return Clients{}, fmt.Errorf("init object store: %w", err)
	}

	return Clients{
		LLM:    llm,
		Speech: speech,
		Mailer: mailer,
		Cache:  cache,
		Store:  store,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}
