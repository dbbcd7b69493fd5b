package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/healing-guide-backend/internal/http/response"
	"github.com/yungbote/healing-guide-backend/internal/modules/constitution"
	"github.com/yungbote/healing-guide-backend/internal/services"
)

type AssessmentHandler struct {
	assessments services.AssessmentService
}

func NewAssessmentHandler(assessments services.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// GET /api/questions
func (h *AssessmentHandler) Questions(c *gin.Context) {
	response.OK(c, gin.H{"questions": h.assessments.Questions()})
}

// POST /api/submit
// body: { "answers": [{"question_id": 1, "option_index": 0}], "email": "...", "user_id": "..." }
func (h *AssessmentHandler) Submit(c *gin.Context) {
	var req struct {
		Answers []constitution.Answer `json:"answers"`
		Email   string                `json:"email"`
		UserID  *uuid.UUID            `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	res, err := h.assessments.Submit(c.Request.Context(), services.SubmitInput{
		Answers: req.Answers,
		UserID:  req.UserID,
		Email:   req.Email,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{
		"assessment_id":   res.Assessment.ID,
		"constitution":    res.Result,
		"recommendations": res.Recommendations,
	})
}

// GET /api/assessments/:id
func (h *AssessmentHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.assessments.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"assessment": a})
}
