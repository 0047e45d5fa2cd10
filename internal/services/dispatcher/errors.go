package dispatcher

import (
	"errors"
	"fmt"

	"github.com/phambaophuc/image-editor/internal/models"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrMissingParameter = errors.New("operation requires a parameter")
	ErrParameterRange   = errors.New("parameter out of range")
	ErrNoArtifact       = errors.New("no image to process")
	ErrResponseTooLarge = errors.New("processed image exceeds size limit")
)

const (
	networkFailureText   = "Network error: unable to reach the image service"
	processingFailedText = "Processing failed"
	responseTooLargeText = "Processing failed: result image is too large"
)

// NetworkError means the processing service produced no usable response.
type NetworkError struct {
	Operation models.Operation
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", networkFailureText, e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteProcessingError means the processing service answered with a non-2xx status.
type RemoteProcessingError struct {
	Operation  models.Operation
	StatusCode int
	StatusText string
}

func (e *RemoteProcessingError) Error() string {
	return fmt.Sprintf("%s: %s", processingFailedText, e.StatusText)
}

// UserMessage turns a dispatch failure into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var remote *RemoteProcessingError
	if errors.As(err, &remote) {
		return remote.Error()
	}

	if errors.Is(err, ErrResponseTooLarge) {
		return responseTooLargeText
	}

	var network *NetworkError
	if errors.As(err, &network) {
		return networkFailureText
	}

	return err.Error()
}
