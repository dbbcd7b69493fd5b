package app

import (
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/healing-guide-backend/internal/knowledge"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
	"github.com/yungbote/healing-guide-backend/internal/services"
)

type Services struct {
	Assessment services.AssessmentService
	Newsletter services.NewsletterService
	Guidance   services.GuidanceService
	Knowledge  services.KnowledgeService
	Speech     services.SpeechService
	LeadMagnet services.LeadMagnetService
	User       services.UserService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, kb *knowledge.KB, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	assessmentService := services.NewAssessmentService(db, log, kb, repos.Assessment, repos.User, cfg.StrictAnswers)
	newsletterService := services.NewNewsletterService(db, log, repos.Newsletter, clients.Mailer, services.NewsletterConfig{
		DownloadURL: cfg.LeadMagnetURL,
	})
	guidanceService := services.NewGuidanceService(
		log,
		kb,
		newsletterService,
		assessmentService,
		repos.User,
		clients.LLM,
		clients.Cache,
		services.GuidanceConfig{
			CacheTTL:   cfg.GuidanceCacheTTL,
			DailyQuota: cfg.GuidanceDailyQuota,
		},
	)

	voiceID := strings.TrimSpace(cfg.VoiceID)
	if voiceID == "" {
		voiceID = services.DefaultVoiceID
	}

	return Services{
		Assessment: assessmentService,
		Newsletter: newsletterService,
		Guidance:   guidanceService,
		Knowledge:  services.NewKnowledgeService(kb),
		Speech:     services.NewSpeechService(log, kb, clients.Speech, voiceID),
		LeadMagnet: services.NewLeadMagnetService(log, clients.Store, clients.Cache, repos.Newsletter, cfg.LeadMagnetObjectKey),
		User:       services.NewUserService(db, log, repos.User),
	}
}
