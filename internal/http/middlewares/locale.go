package middlewares

import (
	"github.com/gin-gonic/gin"

	"eventlocator/internal/i18n"
)

// Locale resolves the response language for each request. The lng query
// param wins over the Accept-Language header; unsupported values fall
// back to English.
func Locale() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := i18n.Match(
			c.Query("lng"),
			c.GetHeader("Accept-Language"),
		)

		c.Set(CtxLocale, lang)

		c.Next()
	}
}

func LocaleFromContext(c *gin.Context) string {
	v, ok := c.Get(CtxLocale)

	if ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}

	return "en"
}
