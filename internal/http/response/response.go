package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/healing-guide-backend/internal/platform/apierr"
)

// OK writes payload with success=true.
func OK(c *gin.Context, payload gin.H) {
	Status(c, http.StatusOK, payload)
}

func Status(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func errorBody(err error) gin.H {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return gin.H{
		"success": false,
		"error":   msg,
		"code":    apierr.CodeOf(err),
	}
}

// Fail maps err onto its apierr status, 500 otherwise.
func Fail(c *gin.Context, err error) {
	record(c, err)
	c.JSON(apierr.StatusOf(err), errorBody(err))
}

// Abort is Fail for middleware.
func Abort(c *gin.Context, err error) {
	record(c, err)
	c.AbortWithStatusJSON(apierr.StatusOf(err), errorBody(err))
}

// record attaches err to the context for the request logger.
func record(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
	}
}

func BadRequest(c *gin.Context, msg string) {
	Fail(c, apierr.BadRequest("invalid_request", msg))
}
