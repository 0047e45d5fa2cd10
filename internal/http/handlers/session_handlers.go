package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-editor/internal/config"
	"github.com/phambaophuc/image-editor/internal/models"
	"github.com/phambaophuc/image-editor/internal/services/dispatcher"
	"github.com/phambaophuc/image-editor/internal/services/params"
	"github.com/phambaophuc/image-editor/internal/services/session"
	"github.com/phambaophuc/image-editor/internal/services/storage"
	"go.uber.org/zap"
)

const imageParamKey = "image"

type SessionHandler struct {
	manager *session.Manager
	exports storage.ExportStore
	logger  *zap.Logger
	config  *config.Config
}

// NewSessionHandler wires the editor API. exports may be nil when no export
// backend is configured.
func NewSessionHandler(
	manager *session.Manager,
	exports storage.ExportStore,
	logger *zap.Logger,
	config *config.Config,
) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		exports: exports,
		logger:  logger,
		config:  config,
	}
}

// sessionView is the JSON shape of a session, including the open prompt.
type sessionView struct {
	models.SessionSnapshot
	PreviewURL string         `json:"preview_url,omitempty"`
	Prompt     *params.Prompt `json:"prompt,omitempty"`
}

func (h *SessionHandler) ListOperations(c *gin.Context) {
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    models.Descriptors(),
	})
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	sess, err := h.manager.Create()
	if err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.APIResponse{
		Success: true,
		Data:    h.view(sess),
	})
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    h.view(sess),
	})
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.manager.Delete(c.Param("id")); err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) SelectImage(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	data, header, contentType, err := h.readUpload(c)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := sess.SelectImage(c.Request.Context(), data, header.Filename, contentType); err != nil {
		h.respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    h.view(sess),
	})
}

// ApplyOperation starts op and answers 202 at once. With ?wait=true it
// answers when the operation has settled instead.
func (h *SessionHandler) ApplyOperation(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	op, known := models.ParseOperation(c.Param("op"))
	if !known {
		h.respondError(c, http.StatusNotFound, fmt.Sprintf("unknown operation %q", c.Param("op")))
		return
	}

	done, err := sess.StartOperation(h.manager.Context(), op)
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	if c.Query("wait") != "true" {
		go h.logOutcome(sess.ID(), op, done)
		c.JSON(http.StatusAccepted, models.APIResponse{
			Success: true,
			Data:    h.view(sess),
		})
		return
	}

	select {
	case err = <-done:
	case <-c.Request.Context().Done():
		go h.logOutcome(sess.ID(), op, done)
		return
	}

	if err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    h.view(sess),
	})
}

func (h *SessionHandler) SubmitParameter(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	prompt, open := sess.Prompter.Pending()
	if !open {
		h.respondSessionError(c, params.ErrNoPrompt)
		return
	}
	_, validationErr := params.Validate(body.Value, prompt.Min, prompt.Max)

	if err := sess.Prompter.Submit(body.Value); err != nil {
		h.respondSessionError(c, err)
		return
	}

	if validationErr != nil {
		h.respondError(c, http.StatusUnprocessableEntity, validationErr.Error())
		return
	}
	c.JSON(http.StatusAccepted, models.APIResponse{
		Success: true,
		Data:    h.view(sess),
	})
}

func (h *SessionHandler) CancelParameter(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := sess.Prompter.Cancel(); err != nil {
		h.respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data:    h.view(sess),
	})
}

func (h *SessionHandler) Download(c *gin.Context) {
	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	artifact, err := sess.Download()
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", models.DownloadFilename))
	c.Data(http.StatusOK, artifact.MIMEType, artifact.Data)
}

func (h *SessionHandler) Export(c *gin.Context) {
	if h.exports == nil {
		h.respondError(c, http.StatusNotImplemented, "Export is not configured")
		return
	}

	sess, ok := h.lookup(c)
	if !ok {
		return
	}

	artifact, err := sess.Download()
	if err != nil {
		h.respondSessionError(c, err)
		return
	}

	url, err := h.exports.Upload(c.Request.Context(), artifact.Data, models.DownloadFilename, artifact.MIMEType)
	if err != nil {
		h.logger.Error("Export failed",
			zap.String("session_id", sess.ID()),
			zap.String("backend", h.exports.Name()),
			zap.Error(err))
		h.respondError(c, http.StatusBadGateway, "Failed to export image")
		return
	}

	c.JSON(http.StatusOK, models.APIResponse{
		Success: true,
		Data: models.ExportResult{
			URL:        url,
			Backend:    h.exports.Name(),
			FileSize:   artifact.Size(),
			ExportedAt: time.Now(),
		},
	})
}

func (h *SessionHandler) Preview(c *gin.Context) {
	artifact, err := h.manager.Previews().Resolve(c.Param("handle"))
	if err != nil {
		h.respondError(c, http.StatusNotFound, err.Error())
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, artifact.MIMEType, artifact.Data)
}

// respondSessionError maps session, prompt and dispatch failures to statuses.
func (h *SessionHandler) respondSessionError(c *gin.Context, err error) {
	var (
		remote  *dispatcher.RemoteProcessingError
		network *dispatcher.NetworkError
	)

	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrClosed):
		h.respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrTooManySessions):
		h.respondError(c, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, session.ErrNoImage),
		errors.Is(err, session.ErrBusy),
		errors.Is(err, params.ErrNoPrompt),
		errors.Is(err, params.ErrCancelled):
		h.respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrEmptyImage), errors.Is(err, session.ErrUnknownOperation):
		h.respondError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &remote), errors.As(err, &network):
		h.respondError(c, http.StatusBadGateway, dispatcher.UserMessage(err))
	default:
		h.logger.Error("Unexpected session error", zap.Error(err))
		h.respondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
