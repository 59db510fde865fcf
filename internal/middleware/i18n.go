// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/michel-brotherhood/marca-facil-formulario/internal/i18n"

	"github.com/gin-gonic/gin"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", resolveLang(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// resolveLang handles values like "pt-BR,pt;q=0.9,en;q=0.8" by honoring the first entry.
func resolveLang(header string) string {
	if header == "" {
		return i18n.DefaultLang
	}
	first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	switch strings.ToLower(first) {
	case "en", "en-us", "en-gb":
		return "en"
	default:
		return i18n.DefaultLang
	}
}
