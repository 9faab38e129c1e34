package http

import "github.com/gin-gonic/gin"

// Register mounts the public endpoints. requireAuth guards /me.
func (h *Handler) Register(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	rg.POST("/register", h.RegisterUser)
	rg.POST("/login", h.Login)
	rg.GET("/me", requireAuth, h.Me)
}
