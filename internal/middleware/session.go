// internal/middleware/session.go
package middleware

import (
	"strings"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/i18n"
	"github.com/michel-brotherhood/marca-facil-formulario/internal/utils"

	"github.com/gin-gonic/gin"
)

// SessionRequired admits a request only when its bearer token was issued for
// the application named by the :id path parameter.
func SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeySessionRequired))
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeySessionInvalid))
			c.Abort()
			return
		}

		claims, err := utils.ValidateSessionToken(strings.TrimSpace(parts[1]))
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeySessionInvalid))
			c.Abort()
			return
		}

		if id := c.Param("id"); id != "" && !strings.EqualFold(id, claims.SessionID) {
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeySessionMismatch))
			c.Abort()
			return
		}

		c.Set("session_id", claims.SessionID)
		c.Next()
	}
}
