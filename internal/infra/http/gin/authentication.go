package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"villabook/internal/app/services/auth"
)

const principalContextKey = "villabook.principal"

type principal struct {
	UserID      string
	LineID      string
	DisplayName string
	Admin       bool
	Token       string
}

// AuthMiddleware resolves the Authorization header into a principal.
// Admin sessions are opaque tokens; guest logins carry a signed JWT.
// Requests without a valid token pass through anonymous.
type AuthMiddleware struct {
	Service *auth.Service
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	if session, err := m.Service.ResolveAdmin(c.Request.Context(), token); err == nil {
		setPrincipal(c, principal{
			UserID:      session.Username,
			DisplayName: session.Username,
			Admin:       true,
			Token:       token,
		})
		c.Next()
		return
	} else if !errors.Is(err, auth.ErrSessionNotFound) && m.Logger != nil {
		m.Logger.Debug("admin session lookup failed", "error", err)
	}
	claims, err := m.Service.VerifyGuest(token)
	if err != nil {
		if !errors.Is(err, auth.ErrTokenInvalid) && m.Logger != nil {
			m.Logger.Debug("guest token validation failed", "error", err)
		}
		c.Next()
		return
	}
	setPrincipal(c, principal{
		UserID:      claims.UserID,
		LineID:      claims.LineID,
		DisplayName: claims.DisplayName,
		Token:       token,
	})
	c.Next()
}

// RequireAdmin aborts requests whose principal is not an admin session.
func RequireAdmin(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return
	}
	if !p.Admin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	c.Next()
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
