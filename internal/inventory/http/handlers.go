package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unitledger/inventory-backend/internal/auth"
	"github.com/unitledger/inventory-backend/internal/inventory/domain"
	"github.com/unitledger/inventory-backend/internal/logging"
)

// ListProjects handles GET /developer/projects
func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.inventory.ListDeveloperProjects(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.internalError(c, "list_projects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "projects": projects})
}

// GetProject handles GET /developer/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Project not found"})
		return
	}

	project, err := h.inventory.GetDeveloperProject(c.Request.Context(), auth.UserID(c), id)
	if errors.Is(err, domain.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Project not found"})
		return
	}
	if err != nil {
		h.internalError(c, "get_project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "project": project})
}

// DeveloperStats handles GET /developer/dashboard/stats
func (h *Handler) DeveloperStats(c *gin.Context) {
	stats, err := h.inventory.DeveloperStats(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.internalError(c, "developer_stats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// Inventory handles GET /agent/inventory
func (h *Handler) Inventory(c *gin.Context) {
	filter := domain.Filter{
		Project:  strings.TrimSpace(c.Query("project")),
		Location: strings.TrimSpace(c.Query("location")),
	}

	var err error
	if filter.PriceMin, err = parsePrice(c.Query("price_min")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "price_min must be a number"})
		return
	}
	if filter.PriceMax, err = parsePrice(c.Query("price_max")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "price_max must be a number"})
		return
	}

	items, err := h.inventory.AgentInventory(c.Request.Context(), filter)
	if errors.Is(err, domain.ErrInvalidFilter) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}
	if err != nil {
		h.internalError(c, "agent_inventory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "inventory": items, "total": len(items)})
}

// AgentStats handles GET /agent/dashboard/stats
func (h *Handler) AgentStats(c *gin.Context) {
	stats, err := h.inventory.AgentStats(c.Request.Context(), auth.UserID(c))
	if err != nil {
		h.internalError(c, "agent_stats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func (h *Handler) internalError(c *gin.Context, op string, err error) {
	logging.NewLogger(c.Request.Context()).LogError(op, err)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
}

func parsePrice(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
