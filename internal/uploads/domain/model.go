package domain

import (
	"time"

	"github.com/unitledger/inventory-backend/internal/ingestion"
)

type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// UploadLog records one ingestion attempt. It is written once on creation
// and once more when the pipeline finishes.
type UploadLog struct {
	ID                int64              `json:"id"`
	DeveloperID       int64              `json:"developer_id"`
	Filename          string             `json:"filename"`
	FileSize          int64              `json:"file_size"`
	Status            Status             `json:"status"`
	ProjectsProcessed int                `json:"projects_processed"`
	UnitsProcessed    int                `json:"units_processed"`
	Summary           *ingestion.Summary `json:"summary,omitempty"`
	ErrorDetails      map[string]string  `json:"error_details,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	CompletedAt       *time.Time         `json:"completed_at,omitempty"`
}

// IsFinished reports whether the log has left PROCESSING.
func (l *UploadLog) IsFinished() bool {
	return l.Status == StatusCompleted || l.Status == StatusFailed
}

// StoredFile is an upload saved to temporary storage.
type StoredFile struct {
	Path         string
	OriginalName string
	Size         int64
}

// Result is returned to the uploader when the pipeline succeeds.
type Result struct {
	Success  bool              `json:"success"`
	UploadID int64             `json:"upload_id"`
	Summary  ingestion.Summary `json:"summary"`
	Warnings []string          `json:"warnings"`
}
