package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oftalmo/records/internal/actorctx"
	"github.com/oftalmo/records/internal/apperr"
	"github.com/oftalmo/records/internal/auth"
	"github.com/oftalmo/records/internal/domain/user"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyToken(token string) (auth.Identity, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
}

func NewAuthMiddleware(tokens TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
// Any other shape counts as no token.
func BearerToken(header string) (string, bool) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}

	return raw, true
}

// RequireAuth authenticates the request and attaches the verified identity
// to both the gin context and the request context.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, apperr.CodeAuthRequired, "Access token required")
			return
		}

		id, err := m.tokens.VerifyToken(raw)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, apperr.CodeInvalidToken, "Invalid or expired token")
			return
		}

		c.Set(ctxIdentity, id)
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(allowed ...user.Role) gin.HandlerFunc {
	set := make(map[user.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}

	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)
		if !ok {
			abortWithError(c, http.StatusUnauthorized, apperr.CodeAuthRequired, "Authentication required")
			return
		}

		if _, ok := set[id.Role]; !ok {
			abortWithError(c, http.StatusForbidden, apperr.CodeForbidden, "Insufficient permissions")
			return
		}

		c.Next()
	}
}

// Helpers so handlers don't need to know the magic keys.

func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(ctxIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok && id.UserID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id, ok := IdentityFromContext(c)
	return id.UserID, ok
}

func RoleFromContext(c *gin.Context) (user.Role, bool) {
	id, ok := IdentityFromContext(c)
	return id.Role, ok
}
