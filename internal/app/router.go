package app

import (
	server "github.com/yungbote/healing-guide-backend/internal/http"
	httpMW "github.com/yungbote/healing-guide-backend/internal/http/middleware"
	"github.com/yungbote/healing-guide-backend/internal/observability"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, tracing bool) *server.Server {
	log.Info("Wiring router...")
	routerCfg := server.RouterConfig{
		Log:         log,
		Metrics:     metrics,
		CORSOrigins: cfg.CORSOrigins,
		AdminAuth:   httpMW.NewAdminAuth(log, cfg.AdminJWTSecret),

		HealthHandler:     handlers.Health,
		AssessmentHandler: handlers.Assessment,
		NewsletterHandler: handlers.Newsletter,
		GuidanceHandler:   handlers.Guidance,
		KnowledgeHandler:  handlers.Knowledge,
		VoiceHandler:      handlers.Voice,
		LeadMagnetHandler: handlers.LeadMagnet,
		UserHandler:       handlers.User,
	}
	if tracing {
		routerCfg.TracingService = cfg.OtelServiceName
	}
	return server.NewServer(routerCfg)
}
