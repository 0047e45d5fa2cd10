package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/phambaophuc/image-editor/internal/models"
	"github.com/phambaophuc/image-editor/internal/services/dispatcher"
	"github.com/phambaophuc/image-editor/internal/services/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatchCall struct {
	req   models.OperationRequest
	input *models.ImageArtifact
}

// fakeDispatcher returns queued results and records what it was given.
type fakeDispatcher struct {
	mu      sync.Mutex
	calls   []dispatchCall
	results []*models.ImageArtifact
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, req models.OperationRequest, in *models.ImageArtifact) (*models.ImageArtifact, error) {
	f.mu.Lock()
	f.calls = append(f.calls, dispatchCall{req: req, input: in})
	var out *models.ImageArtifact
	if len(f.results) > 0 {
		out = f.results[0]
		f.results = f.results[1:]
	}
	err := f.err
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeDispatcher) Calls() []dispatchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dispatchCall(nil), f.calls...)
}

type fixedCollector struct {
	value int
	err   error
	calls int
	last  [4]interface{}
}

func (c *fixedCollector) Collect(_ context.Context, title string, min, max, def int) (int, error) {
	c.calls++
	c.last = [4]interface{}{title, min, max, def}
	return c.value, c.err
}

// waitingCollector stands for a collector that has not opened its prompt yet.
type waitingCollector struct {
	entered chan struct{}
}

func (c *waitingCollector) Collect(ctx context.Context, _ string, _, _, _ int) (int, error) {
	c.entered <- struct{}{}
	<-ctx.Done()
	return 0, ctx.Err()
}

type recordingEvents struct {
	mu     sync.Mutex
	events []*models.SessionEvent
}

func (r *recordingEvents) PublishEvent(_ context.Context, e *models.SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingEvents) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var types []string
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

func artifact(data string) *models.ImageArtifact {
	return models.NewImageArtifact([]byte(data), models.CanonicalMIMEType, models.ProcessedFilename)
}

func newTestState(d dispatcher.Dispatcher, c ParameterCollector) (*State, *PreviewRegistry) {
	previews := NewPreviewRegistry()
	return NewState("test-session", Options{
		Dispatcher: d,
		Collector:  c,
		Previews:   previews,
	}), previews
}

func selectImage(t *testing.T, s *State, data string) *models.ImageArtifact {
	t.Helper()
	snap, err := s.SelectImage(context.Background(), []byte(data), "photo.png", "image/png")
	require.NoError(t, err)
	return snap.Artifact
}

func TestApplyOperationWithoutImageIsNoop(t *testing.T) {
	d := &fakeDispatcher{}
	s, _ := newTestState(d, &fixedCollector{})

	err := s.ApplyOperation(context.Background(), models.OpGrayscale)
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Empty(t, d.Calls())

	snap := s.Snapshot()
	assert.False(t, snap.HasImage)
	assert.False(t, snap.IsProcessing)
	assert.Empty(t, snap.LastError)
}

func TestApplyOperationUnknownOperation(t *testing.T) {
	d := &fakeDispatcher{}
	s, _ := newTestState(d, &fixedCollector{})
	selectImage(t, s, "X")

	err := s.ApplyOperation(context.Background(), "sharpen")
	assert.ErrorIs(t, err, ErrUnknownOperation)
	assert.Empty(t, d.Calls())
	assert.False(t, s.Busy())
}

func TestEndToEndGrayscaleThenBrightness(t *testing.T) {
	y := artifact("Y")
	z := artifact("Z")
	d := &fakeDispatcher{results: []*models.ImageArtifact{y, z}}
	collector := &fixedCollector{value: 50}
	s, _ := newTestState(d, collector)

	x := selectImage(t, s, "X")

	require.NoError(t, s.ApplyOperation(context.Background(), models.OpGrayscale))
	snap := s.Snapshot()
	assert.Same(t, y, snap.Artifact)
	assert.False(t, snap.IsProcessing)
	assert.Empty(t, snap.LastError)

	require.NoError(t, s.ApplyOperation(context.Background(), models.OpBrightness))
	snap = s.Snapshot()
	assert.Same(t, z, snap.Artifact)

	calls := d.Calls()
	require.Len(t, calls, 2)
	assert.Same(t, x, calls[0].input)
	assert.Nil(t, calls[0].req.Parameter)
	assert.Same(t, y, calls[1].input)
	require.NotNil(t, calls[1].req.Parameter)
	assert.Equal(t, 50, *calls[1].req.Parameter)

	assert.Equal(t, 1, collector.calls)
	assert.Equal(t, [4]interface{}{"Adjust Brightness", -100, 100, 0}, collector.last)
}

func TestChainedOperationsUseLatestResult(t *testing.T) {
	a := artifact("after-rotate")
	b := artifact("after-flip")
	c := artifact("after-grayscale")
	d := &fakeDispatcher{results: []*models.ImageArtifact{a, b, c}}
	s, _ := newTestState(d, &fixedCollector{})
	original := selectImage(t, s, "orig")

	for _, op := range []models.Operation{models.OpRotateClockwise, models.OpFlipHorizontal, models.OpGrayscale} {
		require.NoError(t, s.ApplyOperation(context.Background(), op))
	}

	calls := d.Calls()
	require.Len(t, calls, 3)
	assert.Same(t, original, calls[0].input)
	assert.Same(t, a, calls[1].input)
	assert.Same(t, b, calls[2].input)
	assert.Same(t, c, s.Snapshot().Artifact)
}

func TestConcurrentApplyIsRejectedWhileProcessing(t *testing.T) {
	d := &fakeDispatcher{
		results: []*models.ImageArtifact{artifact("Y")},
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s, _ := newTestState(d, &fixedCollector{})
	selectImage(t, s, "X")

	done, err := s.StartOperation(context.Background(), models.OpGrayscale)
	require.NoError(t, err)
	<-d.entered

	assert.True(t, s.Snapshot().IsProcessing)
	assert.ErrorIs(t, s.ApplyOperation(context.Background(), models.OpRotateCounter), ErrBusy)
	_, err = s.StartOperation(context.Background(), models.OpFlipVertical)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.SelectImage(context.Background(), []byte("other"), "o.png", "image/png")
	assert.ErrorIs(t, err, ErrBusy)

	close(d.release)
	require.NoError(t, <-done)

	assert.Len(t, d.Calls(), 1)
	assert.False(t, s.Snapshot().IsProcessing)
}

func TestFailureLeavesArtifactAndPreviewUntouched(t *testing.T) {
	failures := []error{
		&dispatcher.RemoteProcessingError{Operation: models.OpGrayscale, StatusCode: 500, StatusText: "Internal Server Error"},
		&dispatcher.NetworkError{Operation: models.OpGrayscale, Err: errors.New("dial tcp: connection refused")},
	}
	for _, failure := range failures {
		d := &fakeDispatcher{err: failure}
		s, previews := newTestState(d, &fixedCollector{})
		selectImage(t, s, "X")
		before := s.Snapshot()

		err := s.ApplyOperation(context.Background(), models.OpGrayscale)
		assert.ErrorIs(t, err, failure)

		after := s.Snapshot()
		assert.Same(t, before.Artifact, after.Artifact)
		assert.Equal(t, before.PreviewHandle, after.PreviewHandle)
		assert.Equal(t, dispatcher.UserMessage(failure), after.LastError)
		assert.NotEmpty(t, after.LastError)
		assert.False(t, after.IsProcessing)
		assert.Equal(t, 1, previews.Len())

		shown, err := previews.Resolve(after.PreviewHandle)
		require.NoError(t, err)
		assert.Same(t, after.Artifact, shown)
	}
}

func TestErrorClearsOnNextOperation(t *testing.T) {
	d := &fakeDispatcher{err: &dispatcher.RemoteProcessingError{StatusCode: 502, StatusText: "Bad Gateway"}}
	s, _ := newTestState(d, &fixedCollector{})
	selectImage(t, s, "X")

	require.Error(t, s.ApplyOperation(context.Background(), models.OpGrayscale))
	assert.Equal(t, "Processing failed: Bad Gateway", s.Snapshot().LastError)

	d.mu.Lock()
	d.err = nil
	d.results = []*models.ImageArtifact{artifact("Y")}
	d.mu.Unlock()

	require.NoError(t, s.ApplyOperation(context.Background(), models.OpGrayscale))
	assert.Empty(t, s.Snapshot().LastError)
}

func TestCancelledParameterSkipsDispatch(t *testing.T) {
	d := &fakeDispatcher{}
	s, _ := newTestState(d, &fixedCollector{err: params.ErrCancelled})
	x := selectImage(t, s, "X")

	err := s.ApplyOperation(context.Background(), models.OpBlur)
	assert.ErrorIs(t, err, params.ErrCancelled)
	assert.Empty(t, d.Calls())

	snap := s.Snapshot()
	assert.False(t, snap.IsProcessing)
	assert.False(t, snap.AwaitingParameter)
	assert.Same(t, x, snap.Artifact)
	assert.False(t, s.Busy())
}

func TestParameterCollectionHoldsTheSession(t *testing.T) {
	d := &fakeDispatcher{results: []*models.ImageArtifact{artifact("blurred")}}
	prompter := params.NewChannelPrompter()
	s, _ := newTestState(d, params.NewCollector(prompter, nil))
	selectImage(t, s, "X")

	done, err := s.StartOperation(context.Background(), models.OpBlur)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, open := prompter.Pending()
		return open
	}, 2*time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	assert.True(t, snap.AwaitingParameter)
	assert.False(t, snap.IsProcessing)
	assert.Equal(t, models.OpBlur, snap.Operation)
	assert.ErrorIs(t, s.ApplyOperation(context.Background(), models.OpGrayscale), ErrBusy)

	require.NoError(t, prompter.Submit("4"))
	require.NoError(t, <-done)

	calls := d.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, 4, *calls[0].req.Parameter)
	assert.Equal(t, []byte("blurred"), s.Snapshot().Artifact.Data)
}

func TestMissingCollectorFailsCleanly(t *testing.T) {
	d := &fakeDispatcher{}
	s, _ := newTestState(d, nil)
	selectImage(t, s, "X")

	assert.ErrorIs(t, s.ApplyOperation(context.Background(), models.OpBrightness), ErrNoCollector)
	assert.Empty(t, d.Calls())
	assert.False(t, s.Busy())
}

func TestDownload(t *testing.T) {
	d := &fakeDispatcher{results: []*models.ImageArtifact{artifact("processed")}}
	s, _ := newTestState(d, &fixedCollector{})

	_, err := s.Download()
	assert.ErrorIs(t, err, ErrNoImage)

	selectImage(t, s, "original")
	got, err := s.Download()
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got.Data)

	require.NoError(t, s.ApplyOperation(context.Background(), models.OpFlipVertical))
	got, err = s.Download()
	require.NoError(t, err)
	assert.Equal(t, []byte("processed"), got.Data)
	assert.Same(t, s.Snapshot().Artifact, got)
}

func TestPreviewHandlesAreReleased(t *testing.T) {
	d := &fakeDispatcher{results: []*models.ImageArtifact{artifact("1"), artifact("2")}}
	s, previews := newTestState(d, &fixedCollector{})

	selectImage(t, s, "X")
	first := s.Snapshot().PreviewHandle
	require.NoError(t, s.ApplyOperation(context.Background(), models.OpGrayscale))
	second := s.Snapshot().PreviewHandle
	require.NoError(t, s.ApplyOperation(context.Background(), models.OpGrayscale))

	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, previews.Len())
	_, err := previews.Resolve(first)
	assert.ErrorIs(t, err, ErrPreviewNotFound)
	_, err = previews.Resolve(second)
	assert.ErrorIs(t, err, ErrPreviewNotFound)

	shown, err := previews.Resolve(s.Snapshot().PreviewHandle)
	require.NoError(t, err)
	assert.Same(t, s.Snapshot().Artifact, shown)

	s.Close()
	assert.Zero(t, previews.Len())
	assert.ErrorIs(t, s.ApplyOperation(context.Background(), models.OpGrayscale), ErrClosed)
	_, err = s.Download()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSelectImageReplacesArtifactAndClearsError(t *testing.T) {
	d := &fakeDispatcher{err: &dispatcher.NetworkError{Err: errors.New("timeout")}}
	s, previews := newTestState(d, &fixedCollector{})
	selectImage(t, s, "X")
	require.Error(t, s.ApplyOperation(context.Background(), models.OpGrayscale))

	next := selectImage(t, s, "W")
	snap := s.Snapshot()
	assert.Same(t, next, snap.Artifact)
	assert.Empty(t, snap.LastError)
	assert.Equal(t, 1, previews.Len())

	_, err := s.SelectImage(context.Background(), nil, "empty.png", "image/png")
	assert.ErrorIs(t, err, ErrEmptyImage)
}

type halvingCompressor struct{}

func (halvingCompressor) Compress(_ context.Context, data []byte, _ string) ([]byte, string) {
	return data[:len(data)/2], "image/jpeg"
}

func TestSelectImageRunsCompressor(t *testing.T) {
	s := NewState("c", Options{Dispatcher: &fakeDispatcher{}, Compressor: halvingCompressor{}})
	snap, err := s.SelectImage(context.Background(), []byte("12345678"), "big.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, []byte("1234"), snap.Artifact.Data)
	assert.Equal(t, "image/jpeg", snap.MIMEType)
	assert.EqualValues(t, 4, snap.Size)
}

func TestCloseDuringDispatchDropsResult(t *testing.T) {
	d := &fakeDispatcher{
		results: []*models.ImageArtifact{artifact("late")},
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s, previews := newTestState(d, &fixedCollector{})
	selectImage(t, s, "X")

	done, err := s.StartOperation(context.Background(), models.OpGrayscale)
	require.NoError(t, err)
	<-d.entered
	s.Close()
	close(d.release)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Zero(t, previews.Len())
	assert.False(t, s.Snapshot().HasImage)
}

func TestCloseEndsParameterCollection(t *testing.T) {
	d := &fakeDispatcher{}
	c := &waitingCollector{entered: make(chan struct{}, 1)}
	s, _ := newTestState(d, c)
	selectImage(t, s, "X")

	done, err := s.StartOperation(context.Background(), models.OpBrightness)
	require.NoError(t, err)
	<-c.entered
	s.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("operation did not settle after Close")
	}
	assert.Empty(t, d.Calls())
	assert.False(t, s.Busy())
}

func TestEventsArePublished(t *testing.T) {
	events := &recordingEvents{}
	d := &fakeDispatcher{results: []*models.ImageArtifact{artifact("Y")}}
	s := NewState("evt", Options{Dispatcher: d, Collector: &fixedCollector{}, Events: events})

	selectImage(t, s, "X")
	require.NoError(t, s.ApplyOperation(context.Background(), models.OpGrayscale))
	d.mu.Lock()
	d.err = &dispatcher.RemoteProcessingError{StatusCode: 500, StatusText: "Internal Server Error"}
	d.mu.Unlock()
	require.Error(t, s.ApplyOperation(context.Background(), models.OpGrayscale))

	assert.Equal(t, []string{
		models.EventImageSelected,
		models.EventOperationApplied,
		models.EventOperationFailed,
	}, events.Types())
	for _, e := range events.events {
		assert.Equal(t, "evt", e.SessionID)
		assert.NotEmpty(t, e.ID)
	}
}
