package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-editor/internal/config"
	"github.com/phambaophuc/image-editor/internal/models"
	"github.com/phambaophuc/image-editor/internal/services/processor"
	"go.uber.org/zap"
)

// ProcessHandler serves the image processing contract the editor dispatches to.
type ProcessHandler struct {
	processor *processor.ImageProcessor
	logger    *zap.Logger
	config    *config.Config
}

func NewProcessHandler(
	processor *processor.ImageProcessor,
	logger *zap.Logger,
	config *config.Config,
) *ProcessHandler {
	return &ProcessHandler{
		processor: processor,
		logger:    logger,
		config:    config,
	}
}

// Process handles POST /api/process/:op and POST /api/process/:op/:value.
// The reply is always a JPEG body.
func (h *ProcessHandler) Process(c *gin.Context) {
	op, known := models.ParseOperation(c.Param("op"))
	if !known {
		respondError(c, http.StatusNotFound, fmt.Sprintf("unknown operation %q", c.Param("op")))
		return
	}
	desc, _ := models.Describe(op)

	value, err := parseValue(c.Param("value"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	if value != nil && !desc.RequiresParameter() {
		respondError(c, http.StatusNotFound, fmt.Sprintf("%s takes no value", op))
		return
	}

	file, header, err := c.Request.FormFile(imageParamKey)
	if err != nil {
		respondError(c, http.StatusBadRequest, errNoImageFile.Error())
		return
	}
	defer file.Close()

	if _, err := h.processor.ValidateImage(file, h.config.Storage.MaxFileSize); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Invalid image: %v", err))
		return
	}

	buffer, err := h.processor.ProcessImage(file, op, value)
	if err != nil {
		if errors.Is(err, processor.ErrInvalidParameter) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Processing failed",
			zap.String("operation", string(op)),
			zap.String("filename", header.Filename),
			zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to process image")
		return
	}

	c.Data(http.StatusOK, models.CanonicalMIMEType, buffer.Bytes())
}

// Test is the liveness endpoint the editor's health check calls.
func (h *ProcessHandler) Test(c *gin.Context) {
	c.String(http.StatusOK, "Image processing API is running")
}

func parseValue(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid value %q: must be an integer", raw)
	}
	return &v, nil
}
