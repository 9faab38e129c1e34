package http

import "github.com/gin-gonic/gin"

// RegisterDeveloper mounts the developer routes on an already guarded group.
func (h *Handler) RegisterDeveloper(rg *gin.RouterGroup) {
	rg.GET("/projects", h.ListProjects)
	rg.GET("/projects/:id", h.GetProject)
	rg.GET("/dashboard/stats", h.DeveloperStats)
}

// RegisterAgent mounts the agent routes on an already guarded group.
func (h *Handler) RegisterAgent(rg *gin.RouterGroup) {
	rg.GET("/inventory", h.Inventory)
	rg.GET("/dashboard/stats", h.AgentStats)
}
