package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAPIKey rejects any request whose x-api-key header does not match the
// configured shared secret.
func RequireAPIKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		supplied := c.GetHeader("x-api-key")
		if supplied == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
