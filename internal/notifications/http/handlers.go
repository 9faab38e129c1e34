package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unitledger/inventory-backend/internal/auth"
	"github.com/unitledger/inventory-backend/internal/logging"
	"github.com/unitledger/inventory-backend/internal/notifications/domain"
	"github.com/unitledger/inventory-backend/internal/notifications/service"
)

type Handler struct {
	notifications *service.NotificationService
}

func New(notifications *service.NotificationService) *Handler {
	return &Handler{notifications: notifications}
}

// Register mounts the inbox routes on an already guarded group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.List)
	rg.PUT("/notifications/:id/read", h.MarkRead)
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.notifications.List(c.Request.Context(), auth.UserID(c))
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("list_notifications", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": list})
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Notification not found"})
		return
	}

	n, err := h.notifications.MarkRead(c.Request.Context(), auth.UserID(c), id)
	if errors.Is(err, domain.ErrNotificationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Notification not found"})
		return
	}
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("mark_notification_read", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notification": n})
}
