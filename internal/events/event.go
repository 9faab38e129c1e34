package events

import (
	"fmt"
	"time"
)

type Type string

const (
	TypeConnected      Type = "connected"
	TypeUploadProgress Type = "upload_progress"
	TypeUnitProgress   Type = "unit_progress"
	TypeUploadComplete Type = "upload_complete"
	TypeUploadError    Type = "upload_error"
	TypeNotification   Type = "notification"
)

const channelPrefix = "events:"

// Event is the envelope carried on every channel.
type Event struct {
	Type      Type        `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type UploadProgress struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Step    int    `json:"step"`
	Total   int    `json:"total"`
}

type UnitProgress struct {
	Processed      int    `json:"processed"`
	Total          int    `json:"total"`
	CurrentProject string `json:"currentProject"`
}

type UploadComplete struct {
	Success bool        `json:"success"`
	Summary interface{} `json:"summary"`
}

type UploadError struct {
	Error string `json:"error"`
}

type Connected struct {
	SocketID string `json:"socketId"`
	UserID   int64  `json:"userId"`
}

// ConnectionChannel is scoped to one client stream.
func ConnectionChannel(connID string) string {
	return fmt.Sprintf("%sconn:%s", channelPrefix, connID)
}

// UserChannel reaches every stream a user has open.
func UserChannel(userID int64) string {
	return fmt.Sprintf("%suser:%d", channelPrefix, userID)
}
