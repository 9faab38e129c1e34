package http

import "github.com/gin-gonic/gin"

// Register mounts the upload routes. limit guards the ingestion endpoint
// only; history reads are not rate limited.
func (h *Handler) Register(rg *gin.RouterGroup, limit ...gin.HandlerFunc) {
	excel := append(append([]gin.HandlerFunc{}, limit...), h.UploadExcel)
	rg.POST("/excel", excel...)
	rg.GET("/history", h.History)
	rg.GET("/history/:id", h.GetUpload)
}
