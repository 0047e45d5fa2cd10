// Package session owns the authoritative state of an editing session: the
// current image, its preview handle and the single in-flight operation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-editor/internal/models"
	"github.com/phambaophuc/image-editor/internal/services/dispatcher"
	"go.uber.org/zap"
)

var (
	ErrNoImage          = errors.New("no image selected")
	ErrBusy             = errors.New("an operation is already in progress")
	ErrClosed           = errors.New("session closed")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrEmptyImage       = errors.New("image is empty")
	ErrNoCollector      = errors.New("no parameter collector configured")
)

// ParameterCollector suspends until the user enters a value in [min, max]
// or cancels.
type ParameterCollector interface {
	Collect(ctx context.Context, title string, min, max, defaultValue int) (int, error)
}

type PreviewStore interface {
	Create(artifact *models.ImageArtifact) string
	Release(handle string)
}

// Compressor shrinks a freshly selected image. It must return the input
// unchanged when it cannot do better.
type Compressor interface {
	Compress(ctx context.Context, data []byte, mimeType string) ([]byte, string)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event *models.SessionEvent) error
}

type Options struct {
	Dispatcher dispatcher.Dispatcher
	Collector  ParameterCollector
	Previews   PreviewStore
	Compressor Compressor
	Events     EventPublisher
	Logger     *zap.Logger
}

// State is one editing session. All fields change together under mu, so a
// snapshot never shows a preview that belongs to another artifact.
type State struct {
	id string

	dispatcher dispatcher.Dispatcher
	collector  ParameterCollector
	previews   PreviewStore
	compressor Compressor
	events     EventPublisher
	logger     *zap.Logger

	mu         sync.Mutex
	artifact   *models.ImageArtifact
	preview    string
	busy       bool
	processing bool
	awaiting   bool
	operation  models.Operation
	lastError  string
	closed     bool
	updatedAt  time.Time

	// done ends when the session closes; parameter collection waits on it.
	done     context.Context
	markDone context.CancelFunc
}

func NewState(id string, opts Options) *State {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	previews := opts.Previews
	if previews == nil {
		previews = NewPreviewRegistry()
	}
	done, markDone := context.WithCancel(context.Background())
	return &State{
		id:         id,
		dispatcher: opts.Dispatcher,
		collector:  opts.Collector,
		previews:   previews,
		compressor: opts.Compressor,
		events:     opts.Events,
		logger:     logger.With(zap.String("session_id", id)),
		updatedAt:  time.Now(),
		done:       done,
		markDone:   markDone,
	}
}

func (s *State) ID() string { return s.id }

// SelectImage installs a newly chosen image as the current artifact.
func (s *State) SelectImage(ctx context.Context, data []byte, filename, mimeType string) (models.SessionSnapshot, error) {
	if len(data) == 0 {
		return models.SessionSnapshot{}, ErrEmptyImage
	}

	if s.compressor != nil {
		data, mimeType = s.compressor.Compress(ctx, data, mimeType)
	}
	artifact := models.NewImageArtifact(data, mimeType, filename)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return models.SessionSnapshot{}, ErrClosed
	}
	if s.busy {
		s.mu.Unlock()
		return models.SessionSnapshot{}, ErrBusy
	}
	s.install(artifact)
	s.lastError = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("Image selected",
		zap.String("filename", filename),
		zap.String("mime_type", mimeType),
		zap.Int64("size", artifact.Size()))
	s.publish(ctx, &models.SessionEvent{Type: models.EventImageSelected, Size: artifact.Size()})

	return snap, nil
}

// ApplyOperation runs op against the current artifact and waits for the
// outcome. It is a no-op returning ErrNoImage or ErrBusy when no image is
// selected or another operation has not settled.
func (s *State) ApplyOperation(ctx context.Context, op models.Operation) error {
	desc, baseline, err := s.begin(op)
	if err != nil {
		return err
	}
	return s.run(ctx, desc, baseline)
}

// StartOperation checks the guard synchronously and runs the rest of the
// operation in the background. The returned channel yields its result.
func (s *State) StartOperation(ctx context.Context, op models.Operation) (<-chan error, error) {
	desc, baseline, err := s.begin(op)
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		done <- s.run(ctx, desc, baseline)
	}()
	return done, nil
}

// begin claims the session for op. The busy slot stays held through
// parameter collection so no second operation can start meanwhile.
func (s *State) begin(op models.Operation) (models.OperationDescriptor, *models.ImageArtifact, error) {
	desc, ok := models.Describe(op)
	if !ok {
		return models.OperationDescriptor{}, nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return desc, nil, ErrClosed
	case s.artifact == nil:
		return desc, nil, ErrNoImage
	case s.busy:
		return desc, nil, ErrBusy
	}

	s.busy = true
	s.lastError = ""
	s.operation = op
	s.awaiting = desc.RequiresParameter()
	s.updatedAt = time.Now()
	return desc, s.artifact, nil
}

func (s *State) run(ctx context.Context, desc models.OperationDescriptor, baseline *models.ImageArtifact) error {
	req := models.OperationRequest{Operation: desc.Operation}

	if desc.RequiresParameter() {
		value, err := s.collectParameter(ctx, desc.Parameter)
		if err != nil {
			s.settle(func() {})
			s.logger.Info("Parameter entry aborted",
				zap.String("operation", string(desc.Operation)),
				zap.Error(err))
			return err
		}
		req.Parameter = &value
	}

	s.mu.Lock()
	s.awaiting = false
	s.processing = true
	s.updatedAt = time.Now()
	s.mu.Unlock()

	result, err := s.dispatcher.Dispatch(ctx, req, baseline)
	if err != nil {
		message := dispatcher.UserMessage(err)
		s.settle(func() { s.lastError = message })
		s.logger.Warn("Operation failed",
			zap.String("operation", req.String()),
			zap.Error(err))
		s.publish(ctx, &models.SessionEvent{
			Type:      models.EventOperationFailed,
			Operation: req.Operation,
			Parameter: req.Parameter,
			Error:     message,
		})
		return err
	}

	var closed bool
	s.settle(func() {
		if s.closed {
			closed = true
			return
		}
		s.install(result)
	})
	if closed {
		return ErrClosed
	}

	s.logger.Info("Operation applied",
		zap.String("operation", req.String()),
		zap.Int64("size", result.Size()))
	s.publish(ctx, &models.SessionEvent{
		Type:      models.EventOperationApplied,
		Operation: req.Operation,
		Parameter: req.Parameter,
		Size:      result.Size(),
	})
	return nil
}

func (s *State) collectParameter(ctx context.Context, spec *models.ParameterSpec) (int, error) {
	if s.collector == nil {
		return 0, ErrNoCollector
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.done, cancel)
	defer stop()

	value, err := s.collector.Collect(ctx, spec.Title, spec.Min, spec.Max, spec.Default)
	if errors.Is(err, context.Canceled) && s.done.Err() != nil {
		return 0, ErrClosed
	}
	return value, err
}

// settle applies fn and returns the session to idle in one step.
func (s *State) settle(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
	s.busy = false
	s.processing = false
	s.awaiting = false
	s.operation = ""
	s.updatedAt = time.Now()
}

// install replaces the artifact and its preview together. Caller holds mu.
func (s *State) install(artifact *models.ImageArtifact) {
	old := s.preview
	s.artifact = artifact
	s.preview = s.previews.Create(artifact)
	s.previews.Release(old)
	s.updatedAt = time.Now()
}

// Download returns the current artifact for export without changing anything.
func (s *State) Download() (*models.ImageArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.artifact == nil {
		return nil, ErrNoImage
	}
	return s.artifact, nil
}

func (s *State) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) snapshotLocked() models.SessionSnapshot {
	snap := models.SessionSnapshot{
		SessionID:         s.id,
		Artifact:          s.artifact,
		HasImage:          s.artifact != nil,
		PreviewHandle:     s.preview,
		IsProcessing:      s.processing,
		AwaitingParameter: s.awaiting,
		Operation:         s.operation,
		LastError:         s.lastError,
		UpdatedAt:         s.updatedAt,
	}
	if s.artifact != nil {
		snap.MIMEType = s.artifact.MIMEType
		snap.Size = s.artifact.Size()
	}
	return snap
}

// LastActivity is used by the manager to expire idle sessions.
func (s *State) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Busy reports whether an operation has been claimed and not yet settled.
func (s *State) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Close releases the preview handle and ends any parameter entry. An
// operation still in flight settles without installing its result.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.markDone()
	s.previews.Release(s.preview)
	s.preview = ""
	s.artifact = nil
}

func (s *State) publish(ctx context.Context, event *models.SessionEvent) {
	if s.events == nil {
		return
	}
	event.ID = uuid.New().String()
	event.SessionID = s.id
	event.CreatedAt = time.Now()
	if err := s.events.PublishEvent(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("Failed to publish session event",
			zap.String("type", event.Type),
			zap.Error(err))
	}
}
