package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/healing-guide-backend/internal/http/response"
	"github.com/yungbote/healing-guide-backend/internal/services"
)

type KnowledgeHandler struct {
	knowledge services.KnowledgeService
}

func NewKnowledgeHandler(knowledge services.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge}
}

// symptoms accepts ?symptoms=a,b as well as repeated ?symptoms= values.
func symptoms(c *gin.Context) []string {
	var out []string
	for _, raw := range c.QueryArray("symptoms") {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// GET /api/constitutional-analysis/:constitution
func (h *KnowledgeHandler) ConstitutionalAnalysis(c *gin.Context) {
	a, err := h.knowledge.ConstitutionalAnalysis(c.Param("constitution"), symptoms(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"analysis": a})
}

// GET /api/planetary-guidance/:planet?constitution=
func (h *KnowledgeHandler) PlanetaryGuidance(c *gin.Context) {
	g, err := h.knowledge.PlanetaryGuidance(c.Param("planet"), c.Query("constitution"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"guidance": g})
}

// GET /api/seasonal-recommendations?season=&constitution=
func (h *KnowledgeHandler) SeasonalRecommendations(c *gin.Context) {
	r, err := h.knowledge.SeasonalRecommendations(c.Query("season"), c.Query("constitution"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"recommendations": r})
}

// GET /api/guidance/seasonal?constitution=
func (h *KnowledgeHandler) CurrentSeason(c *gin.Context) {
	cur, err := h.knowledge.CurrentSeason(c.Query("constitution"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{
		"season":          cur.Season,
		"recommendations": cur.Recommendations,
	})
}

// GET /api/knowledge/constitutions
func (h *KnowledgeHandler) Constitutions(c *gin.Context) {
	response.OK(c, gin.H{"catalog": h.knowledge.Catalog()})
}

// POST /api/avatar-script
// body: { "response_text": "...", "context": "general" }
func (h *KnowledgeHandler) AvatarScript(c *gin.Context) {
	var req struct {
		ResponseText string `json:"response_text"`
		Context      string `json:"context"`
	}
	if err := optionalJSON(c, &req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	response.OK(c, gin.H{"script": h.knowledge.SpeakingScript(req.ResponseText, req.Context)})
}

// POST /api/avatar/contextual-script
// body: { "context": "welcome", "constitution": "vata", "season": "fall" }
func (h *KnowledgeHandler) ContextualScript(c *gin.Context) {
	var req struct {
		Context      string `json:"context"`
		Constitution string `json:"constitution"`
		Season       string `json:"season"`
	}
	if err := optionalJSON(c, &req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	s := h.knowledge.ContextualScript(req.Context, req.Constitution, req.Season)
	response.OK(c, gin.H{
		"script":       s.Script,
		"context":      s.Context,
		"constitution": s.Constitution,
		"season":       s.Season,
	})
}

// POST /api/avatar/speak
// body: { "type": "sleep" }
func (h *KnowledgeHandler) Speak(c *gin.Context) {
	var req struct {
		Type string `json:"type"`
	}
	if err := optionalJSON(c, &req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	s := h.knowledge.SpeakScript(req.Type)
	response.OK(c, gin.H{"script": s.Script, "type": s.Type})
}
