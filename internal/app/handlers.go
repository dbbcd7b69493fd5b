package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/healing-guide-backend/internal/http/handlers"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Assessment *httpH.AssessmentHandler
	Newsletter *httpH.NewsletterHandler
	Guidance   *httpH.GuidanceHandler
	Knowledge  *httpH.KnowledgeHandler
	Voice      *httpH.VoiceHandler
	LeadMagnet *httpH.LeadMagnetHandler
	User       *httpH.UserHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Assessment: httpH.NewAssessmentHandler(services.Assessment),
		Newsletter: httpH.NewNewsletterHandler(services.Newsletter),
		Guidance:   httpH.NewGuidanceHandler(services.Guidance),
		Knowledge:  httpH.NewKnowledgeHandler(services.Knowledge),
		Voice:      httpH.NewVoiceHandler(log, services.Speech),
		LeadMagnet: httpH.NewLeadMagnetHandler(log, services.LeadMagnet),
		User:       httpH.NewUserHandler(services.User),
	}
}
