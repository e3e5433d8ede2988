package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oftalmo/records/internal/apperr"
)

// MaxBodyBytes rejects declared oversize bodies up front and caps the rest while reading.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.ContentLength > max {
			abortWithError(ctx, http.StatusRequestEntityTooLarge, apperr.CodeInvalidInput, "Request body too large")
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)

		ctx.Next()
	}
}
