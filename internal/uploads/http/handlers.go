package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/unitledger/inventory-backend/internal/auth"
	"github.com/unitledger/inventory-backend/internal/ingestion"
	"github.com/unitledger/inventory-backend/internal/logging"
	"github.com/unitledger/inventory-backend/internal/uploads/domain"
	"github.com/unitledger/inventory-backend/internal/uploads/service"
	"github.com/unitledger/inventory-backend/internal/uploads/storage"
)

const (
	msgNoFile      = "No file uploaded"
	msgInvalidType = "Invalid file type. Only Excel and CSV files allowed."
	msgTooLarge    = "File too large"
)

type Handler struct {
	uploads *service.UploadService
	files   *storage.FileManager
}

func New(uploads *service.UploadService, files *storage.FileManager) *Handler {
	return &Handler{uploads: uploads, files: files}
}

// UploadExcel handles POST /upload/excel. The pipeline runs within the
// request; progress is streamed to the connection named by socketId.
func (h *Handler) UploadExcel(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.NewLogger(ctx)

	header, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": msgTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgNoFile})
		return
	}
	if !ingestion.IsSupported(header.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgInvalidType})
		return
	}
	if limit := h.files.MaxUploadBytes(); limit > 0 && header.Size > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": msgTooLarge})
		return
	}

	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgNoFile})
		return
	}
	defer src.Close()

	stored, err := h.files.Save(src, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidFileType):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgInvalidType})
		case errors.Is(err, domain.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": msgTooLarge})
		default:
			logger.LogError("save_upload", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		}
		return
	}

	result, err := h.uploads.ProcessUpload(ctx, *stored, auth.UserID(c), c.PostForm("socketId"))
	if err != nil {
		status := http.StatusInternalServerError
		if service.IsClientError(err) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// History handles GET /upload/history
func (h *Handler) History(c *gin.Context) {
	logs, err := h.uploads.History(c.Request.Context(), auth.UserID(c))
	if err != nil {
		logging.NewLogger(c.Request.Context()).LogError("upload_history", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "uploads": logs})
}

// GetUpload handles GET /upload/history/:id
func (h *Handler) GetUpload(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Upload not found"})
		return
	}

	log, err := h.uploads.GetUpload(c.Request.Context(), auth.UserID(c), id)
	if errors.Is(err, domain.ErrUploadNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Upload not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "upload": log})
}
