package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oftalmo/records/internal/apperr"
	"github.com/oftalmo/records/internal/http/middlewares"
)

type APIError struct {
	Code      apperr.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

const ctxErrorCode = middlewares.CtxErrorCode

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

// ErrorCode returns the code of the error response written for this request, if any.
func ErrorCode(ctx *gin.Context) (apperr.Code, bool) {
	v, ok := ctx.Get(ctxErrorCode)
	if !ok {
		return "", false
	}
	code, ok := v.(apperr.Code)
	return code, ok
}

func RespondError(ctx *gin.Context, status int, code apperr.Code, message string, details interface{}) {
	ctx.Set(ctxErrorCode, code)
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

// RespondAppError maps err onto the error envelope. Anything that is not an
// *apperr.Error is logged and reported as a generic DB_001.
func RespondAppError(ctx *gin.Context, err error) {
	if ae, ok := apperr.As(err); ok {
		if ae.Kind == apperr.KindInternal {
			slog.Default().ErrorContext(ctx.Request.Context(), "request failed", "code", ae.Code, "err", err, "request_id", requestIDFrom(ctx))
		}
		RespondError(ctx, ae.Kind.HTTPStatus(), ae.Code, ae.Message, ae.Details)
		return
	}

	RespondInternal(ctx, err)
}

func RespondBadRequest(ctx *gin.Context, code apperr.Code, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, code, message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, apperr.CodeNotFound, message, nil)
}

func RespondUnauthorized(ctx *gin.Context, code apperr.Code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

// RespondInternal logs err and hides it from the client.
func RespondInternal(ctx *gin.Context, err error) {
	slog.Default().ErrorContext(ctx.Request.Context(), "request failed", "err", err, "request_id", requestIDFrom(ctx))
	ie := apperr.Internal("Internal server error", err)
	RespondError(ctx, ie.Kind.HTTPStatus(), ie.Code, ie.Message, nil)
}
