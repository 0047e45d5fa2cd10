package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-editor/internal/models"
	"github.com/phambaophuc/image-editor/internal/services/session"
	"github.com/phambaophuc/image-editor/pkg/utils"
	"go.uber.org/zap"
)

var errNoImageFile = errors.New("No image file provided")

func (h *SessionHandler) lookup(c *gin.Context) (*session.Session, bool) {
	sess, err := h.manager.Get(c.Param("id"))
	if err != nil {
		h.respondSessionError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *SessionHandler) view(sess *session.Session) sessionView {
	v := sessionView{SessionSnapshot: sess.Snapshot()}
	if v.PreviewHandle != "" {
		v.PreviewURL = "/api/v1/previews/" + v.PreviewHandle
	}
	if prompt, ok := sess.Prompter.Pending(); ok {
		v.Prompt = &prompt
	}
	return v
}

// readUpload reads the image part, enforcing the configured size and type.
func (h *SessionHandler) readUpload(c *gin.Context) ([]byte, *multipart.FileHeader, string, error) {
	file, header, err := c.Request.FormFile(imageParamKey)
	if err != nil {
		return nil, nil, "", errNoImageFile
	}
	defer file.Close()

	maxSize := h.config.Storage.MaxFileSize
	if header.Size > maxSize {
		return nil, nil, "", fmt.Errorf("file size %d exceeds maximum allowed size %d", header.Size, maxSize)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, nil, "", fmt.Errorf("file size exceeds maximum allowed size %d", maxSize)
	}

	contentType := header.Header.Get("Content-Type")
	if !utils.IsValidImageType(contentType) {
		contentType = http.DetectContentType(data)
	}
	if !utils.IsValidImageType(contentType) {
		return nil, nil, "", fmt.Errorf("unsupported file type: %s", contentType)
	}

	return data, header, contentType, nil
}

func (h *SessionHandler) logOutcome(sessionID string, op models.Operation, done <-chan error) {
	if err := <-done; err != nil {
		h.logger.Debug("Background operation ended with error",
			zap.String("session_id", sessionID),
			zap.String("operation", string(op)),
			zap.Error(err))
	}
}

func (h *SessionHandler) respondError(c *gin.Context, statusCode int, message string) {
	respondError(c, statusCode, message)
}

func respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}
