package domain

import (
	"errors"
	"time"
)

var ErrNotificationNotFound = errors.New("notification not found")

type Type string

const TypeInventoryUpdate Type = "INVENTORY_UPDATE"

type Notification struct {
	ID        int64                  `json:"id"`
	UserID    int64                  `json:"user_id"`
	Type      Type                   `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// ProjectUpdate describes one project touched by an upload.
type ProjectUpdate struct {
	ProjectID int64
	Name      string
	UnitCount int
}
