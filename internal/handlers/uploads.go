package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"campus-chat/internal/media"
	"campus-chat/internal/telemetry"
)

// UploadHandler stores media attachments referenced by messages.
type UploadHandler struct {
	auditor
	store MediaStore
}

// NewUploadHandler builds an UploadHandler.
func NewUploadHandler(store MediaStore, audit *telemetry.Emitter) *UploadHandler {
	return &UploadHandler{auditor: auditor{audit: audit}, store: store}
}

// Upload handles POST /uploads (multipart: file, type).
func (h *UploadHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded or upload error"})
		return
	}
	if header.Size > h.store.MaxBytes() {
		c.JSON(http.StatusBadRequest, gin.H{"error": media.ErrTooLarge.Error()})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded or upload error"})
		return
	}
	defer file.Close()

	category := c.DefaultPostForm("type", "image")
	stored, err := h.store.Save(category, header.Filename, file)
	if err != nil {
		if errors.Is(err, media.ErrTooLarge) || errors.Is(err, media.ErrUnsupportedType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("request_id", requestIDFromContext(c)).Msg("upload save failed")
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	h.emitAudit(c, "INFO", "File uploaded")
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"path":      stored.Path,
		"file_type": stored.FileType,
		"file_name": stored.FileName,
	})
}
