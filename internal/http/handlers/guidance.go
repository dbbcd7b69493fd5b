package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/healing-guide-backend/internal/http/response"
	"github.com/yungbote/healing-guide-backend/internal/services"
)

type GuidanceHandler struct {
	guidance services.GuidanceService
}

func NewGuidanceHandler(guidance services.GuidanceService) *GuidanceHandler {
	return &GuidanceHandler{guidance: guidance}
}

// POST /api/ask
// body: { "query": "...", "email": "...", "user_id": "...", "symptoms": ["..."] }
//
// The subscription check runs before the body is validated, so a missing query or a
// malformed body from a non-subscriber is still 403.
func (h *GuidanceHandler) Ask(c *gin.Context) {
	var req struct {
		Query    string     `json:"query"`
		Email    string     `json:"email"`
		UserID   *uuid.UUID `json:"user_id"`
		Symptoms []string   `json:"symptoms"`
	}
	bindErr := optionalJSON(c, &req)
	res, err := h.guidance.Ask(c.Request.Context(), services.AskInput{
		Query:     req.Query,
		Email:     req.Email,
		UserID:    req.UserID,
		Symptoms:  req.Symptoms,
		DecodeErr: bindErr,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{
		"response":     res.Response,
		"user_context": res.UserContext,
		"source":       res.Source,
		"cached":       res.Cached,
	})
}
