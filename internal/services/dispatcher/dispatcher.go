// Package dispatcher sends one image operation to the remote processing
// service and turns the reply into a new image artifact.
package dispatcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/phambaophuc/image-editor/internal/models"
	"go.uber.org/zap"
)

const (
	imageFieldName   = "image"
	defaultFilename  = "image.jpg"
	maxResponseBytes = 64 << 20 // 64MB
)

// Dispatcher applies one operation to an artifact. Implementations never
// touch session state; they only return a new artifact or an error.
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.OperationRequest, artifact *models.ImageArtifact) (*models.ImageArtifact, error)
}

type HTTPDispatcher struct {
	baseURL     string
	client      *http.Client
	logger      *zap.Logger
	maxResponse int64
}

// NewHTTPDispatcher targets baseURL. A zero timeout leaves requests unbounded.
func NewHTTPDispatcher(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPDispatcher {
	return NewHTTPDispatcherWithClient(baseURL, &http.Client{Timeout: timeout}, logger)
}

func NewHTTPDispatcherWithClient(baseURL string, client *http.Client, logger *zap.Logger) *HTTPDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPDispatcher{
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      client,
		logger:      logger,
		maxResponse: maxResponseBytes,
	}
}

func (d *HTTPDispatcher) Dispatch(ctx context.Context, req models.OperationRequest, artifact *models.ImageArtifact) (*models.ImageArtifact, error) {
	endpoint, err := d.Endpoint(req)
	if err != nil {
		return nil, err
	}
	if artifact == nil || len(artifact.Data) == 0 {
		return nil, ErrNoArtifact
	}

	body, contentType, err := encodeMultipart(artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to build request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "image/*")

	start := time.Now()
	resp, err := d.client.Do(httpReq)
	if err != nil {
		d.logger.Warn("Processing service unreachable",
			zap.String("operation", req.String()),
			zap.Error(err))
		return nil, &NetworkError{Operation: req.Operation, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		d.logger.Warn("Processing service rejected operation",
			zap.String("operation", req.String()),
			zap.Int("status", resp.StatusCode))
		return nil, &RemoteProcessingError{
			Operation:  req.Operation,
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxResponse+1))
	if err != nil {
		return nil, &NetworkError{Operation: req.Operation, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if int64(len(data)) > d.maxResponse {
		d.logger.Warn("Processing service response too large",
			zap.String("operation", req.String()),
			zap.Int64("limit_bytes", d.maxResponse))
		return nil, &NetworkError{Operation: req.Operation, Err: fmt.Errorf("%w: over %d bytes", ErrResponseTooLarge, d.maxResponse)}
	}

	d.logger.Info("Operation processed",
		zap.String("operation", req.String()),
		zap.Int("input_bytes", len(artifact.Data)),
		zap.Int("output_bytes", len(data)),
		zap.Duration("latency", time.Since(start)))

	return &models.ImageArtifact{
		Data:     data,
		MIMEType: models.CanonicalMIMEType,
		Filename: models.ProcessedFilename,
	}, nil
}

// Endpoint resolves the absolute URL for req, validating its parameter.
func (d *HTTPDispatcher) Endpoint(req models.OperationRequest) (string, error) {
	desc, ok := models.Describe(req.Operation)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, req.Operation)
	}

	value := 0
	if desc.RequiresParameter() {
		if req.Parameter == nil {
			return "", fmt.Errorf("%w: %s", ErrMissingParameter, req.Operation)
		}
		value = *req.Parameter
		if !desc.Parameter.Contains(value) {
			return "", fmt.Errorf("%w: %s accepts %d..%d, got %d",
				ErrParameterRange, req.Operation, desc.Parameter.Min, desc.Parameter.Max, value)
		}
	}

	return d.baseURL + desc.Path(value), nil
}

func encodeMultipart(artifact *models.ImageArtifact) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filename := artifact.Filename
	if filename == "" {
		filename = defaultFilename
	}
	mimeType := artifact.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, imageFieldName, escapeQuotes(filename)))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(artifact.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// statusText prefers the reason phrase the server sent.
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	if text == "" {
		text = "status " + strconv.Itoa(resp.StatusCode)
	}
	return text
}
