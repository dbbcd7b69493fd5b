package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/healing-guide-backend/internal/http/response"
	"github.com/yungbote/healing-guide-backend/internal/platform/logger"
	"github.com/yungbote/healing-guide-backend/internal/services"
)

type LeadMagnetHandler struct {
	log        *logger.Logger
	leadMagnet services.LeadMagnetService
}

func NewLeadMagnetHandler(log *logger.Logger, leadMagnet services.LeadMagnetService) *LeadMagnetHandler {
	return &LeadMagnetHandler{log: log.With("handler", "LeadMagnetHandler"), leadMagnet: leadMagnet}
}

// GET /api/lead-magnet/download
func (h *LeadMagnetHandler) Download(c *gin.Context) {
	obj, key, err := h.leadMagnet.Open(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	defer obj.Close()

	contentType := obj.Attrs.ContentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	if obj.Attrs.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(obj.Attrs.Size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, obj); err != nil {
		h.log.Warn("lead magnet stream interrupted", "error", err)
	}
}

// GET /api/lead-magnet/stats (admin)
func (h *LeadMagnetHandler) Stats(c *gin.Context) {
	stats, err := h.leadMagnet.Stats(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"stats": stats})
}
