package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chatline/internal/service"
)

const (
	authUserKey  = "auth_user"
	authTokenKey = "auth_token"
)

// SessionAuthMiddleware valida el token de sesión y guarda la identidad en el
// contexto. La validez no se extiende al usarla.
func SessionAuthMiddleware(sessions *service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessions == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sessions not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		username, err := sessions.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrSessionInvalid) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not validate session"})
			}
			c.Abort()
			return
		}

		c.Set(authUserKey, username)
		c.Set(authTokenKey, token)
		c.Next()
	}
}

// AuthUser obtiene la identidad autenticada desde el contexto.
func AuthUser(c *gin.Context) (string, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return "", false
	}
	username, ok := val.(string)
	return username, ok
}

// AuthToken obtiene el token de sesión validado desde el contexto.
func AuthToken(c *gin.Context) (string, bool) {
	val, ok := c.Get(authTokenKey)
	if !ok {
		return "", false
	}
	token, ok := val.(string)
	return token, ok
}
