package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the configured client origin plus any origin during
// development.
func CORS(clientURL string, allowAll bool) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", headerRequestID},
		ExposeHeaders:    []string{headerRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if allowAll || clientURL == "" {
		config.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		config.AllowOrigins = []string{clientURL}
	}
	return cors.New(config)
}
