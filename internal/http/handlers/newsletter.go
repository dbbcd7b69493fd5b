package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/healing-guide-backend/internal/http/response"
	"github.com/yungbote/healing-guide-backend/internal/services"
)

type NewsletterHandler struct {
	newsletter services.NewsletterService
}

func NewNewsletterHandler(newsletter services.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{newsletter: newsletter}
}

type emailRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// POST /api/newsletter/subscribe
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Email is required")
		return
	}
	res, err := h.newsletter.Subscribe(c.Request.Context(), req.Email, req.Name, req.Source)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{
		"message":           res.Message,
		"status":            res.Status,
		"subscription_date": res.Subscription.SubscribedAt,
		"download_url":      services.LeadMagnetDownloadPath,
	})
}

// POST /api/newsletter/unsubscribe
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Email is required")
		return
	}
	if err := h.newsletter.Unsubscribe(c.Request.Context(), req.Email); err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Successfully unsubscribed from newsletter"})
}

// GET /api/subscription-status/:email
func (h *NewsletterHandler) Status(c *gin.Context) {
	st, err := h.newsletter.Status(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{
		"subscribed":        st.Subscribed,
		"subscription_date": st.SubscriptionDate,
	})
}

// GET /api/newsletter/stats (admin)
func (h *NewsletterHandler) Stats(c *gin.Context) {
	stats, err := h.newsletter.Stats(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"stats": stats})
}
