package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"chat-relay/internal/models"
	"chat-relay/internal/services"

	"github.com/gin-gonic/gin"
)

type FileHandler struct {
	fileService *services.FileService
}

func NewFileHandler(fileService *services.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// Upload godoc
// @Summary Upload an attachment
// @Description Store a file blob and return its attachment metadata. The blob may be client-side encrypted; pass nonce and algo so recipients can decrypt after download.
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Param nonce formData string false "Encryption nonce"
// @Param algo formData string false "Encryption algorithm"
// @Success 201 {object} models.AttachmentResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /files [post]
func (h *FileHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "file field is required",
		})
		return
	}

	var nonce, algo *string
	if v := c.PostForm("nonce"); v != "" {
		nonce = &v
	}
	if v := c.PostForm("algo"); v != "" {
		algo = &v
	}

	attachment, err := h.fileService.Upload(c.Request.Context(), file, nonce, algo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Upload failed",
		})
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

// Download godoc
// @Summary Get a download link for an attachment
// @Description Returns a short-lived presigned URL for the attachment blob
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path int true "Attachment ID"
// @Success 200 {object} map[string]interface{} "url and attachment metadata"
// @Failure 404 {object} models.ErrorResponse
// @Router /files/{id} [get]
func (h *FileHandler) Download(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid attachment id",
		})
		return
	}

	url, attachment, err := h.fileService.DownloadURL(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrAttachmentNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "Attachment not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to create download link",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":        url,
		"attachment": attachment,
	})
}
