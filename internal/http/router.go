package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/healing-guide-backend/internal/http/handlers"
	httpMW "github.com/yungbote/healing-guide-backend/internal/http/middleware"
	"github.com/yungbote/healing-guide-backend/internal/observability"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	TracingService string
	CORSOrigins    []string
	AdminAuth      *httpMW.AdminAuth

	HealthHandler     *httpH.HealthHandler
	AssessmentHandler *httpH.AssessmentHandler
	NewsletterHandler *httpH.NewsletterHandler
	GuidanceHandler   *httpH.GuidanceHandler
	KnowledgeHandler  *httpH.KnowledgeHandler
	VoiceHandler      *httpH.VoiceHandler
	LeadMagnetHandler *httpH.LeadMagnetHandler
	UserHandler       *httpH.UserHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	admin := func(c *gin.Context) { c.Next() }
	if cfg.AdminAuth != nil {
		admin = cfg.AdminAuth.RequireAdmin()
	}

	api := r.Group("/api")

	// Quiz
	if cfg.AssessmentHandler != nil {
		api.GET("/questions", cfg.AssessmentHandler.Questions)
		api.POST("/submit", cfg.AssessmentHandler.Submit)
		api.GET("/assessments/:id", cfg.AssessmentHandler.Get)
	}

	// Subscription gate
	if cfg.NewsletterHandler != nil {
		api.POST("/newsletter/subscribe", cfg.NewsletterHandler.Subscribe)
		api.POST("/newsletter/unsubscribe", cfg.NewsletterHandler.Unsubscribe)
		api.GET("/subscription-status/:email", cfg.NewsletterHandler.Status)
		api.GET("/newsletter/stats", admin, cfg.NewsletterHandler.Stats)
	}

	if cfg.GuidanceHandler != nil {
		api.POST("/ask", cfg.GuidanceHandler.Ask)
	}

	// Knowledge base
	if cfg.KnowledgeHandler != nil {
		api.GET("/constitutional-analysis/:constitution", cfg.KnowledgeHandler.ConstitutionalAnalysis)
		api.GET("/planetary-guidance/:planet", cfg.KnowledgeHandler.PlanetaryGuidance)
		api.GET("/seasonal-recommendations", cfg.KnowledgeHandler.SeasonalRecommendations)
		api.GET("/guidance/seasonal", cfg.KnowledgeHandler.CurrentSeason)
		api.GET("/knowledge/constitutions", cfg.KnowledgeHandler.Constitutions)
		api.POST("/avatar-script", cfg.KnowledgeHandler.AvatarScript)
		api.POST("/avatar/contextual-script", cfg.KnowledgeHandler.ContextualScript)
		api.POST("/avatar/speak", cfg.KnowledgeHandler.Speak)
	}

	// Speech
	if cfg.VoiceHandler != nil {
		voice := api.Group("/voice-cloning")
		voice.POST("/generate-speech", cfg.VoiceHandler.GenerateSpeech)
		voice.POST("/test-voice", cfg.VoiceHandler.TestVoice)
		voice.POST("/test-voice/:voice_id", cfg.VoiceHandler.TestVoice)
		voice.GET("/voice-status", cfg.VoiceHandler.VoiceStatus)
		voice.GET("/setup-status", cfg.VoiceHandler.SetupStatus)
		voice.GET("/voices", cfg.VoiceHandler.Voices)
		voice.DELETE("/voices/:voice_id", cfg.VoiceHandler.DeleteVoice)
		voice.GET("/voice-settings/:voice_id", cfg.VoiceHandler.GetVoiceSettings)
		voice.POST("/voice-settings/:voice_id", cfg.VoiceHandler.UpdateVoiceSettings)
		voice.GET("/user-info", cfg.VoiceHandler.UserInfo)
		voice.POST("/upload-voice-sample", cfg.VoiceHandler.UploadVoiceSample)
	}

	// Lead magnet
	if cfg.LeadMagnetHandler != nil {
		api.GET("/lead-magnet/download", cfg.LeadMagnetHandler.Download)
		api.GET("/lead-magnet/stats", admin, cfg.LeadMagnetHandler.Stats)
	}

	// Users
	if cfg.UserHandler != nil {
		api.POST("/users", cfg.UserHandler.Create)
		api.GET("/users", cfg.UserHandler.List)
		api.GET("/users/:id", cfg.UserHandler.Get)
		api.PUT("/users/:id", cfg.UserHandler.Update)
		api.DELETE("/users/:id", cfg.UserHandler.Delete)
	}

	return r
}
