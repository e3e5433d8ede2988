package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/oftalmo/records/internal/apperr"
)

// abortWithError writes the same error envelope the handlers use.
func abortWithError(c *gin.Context, status int, code apperr.Code, message string) {
	reqID, _ := c.Get(CtxRequestID)
	id, _ := reqID.(string)

	c.Set(CtxErrorCode, code)

	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": id,
		},
	})
}
