package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/glengine/internal/core/input"
	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/scene"
)

type fakeTime struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (f *fakeTime) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(f.step)
	return f.now
}

// scriptedInput asks to close after closeAfter polls.
type scriptedInput struct {
	mu         sync.Mutex
	polls      int
	closeAfter int
	escapeAt   int
}

func (s *scriptedInput) Poll() (*input.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	changes := input.NewState()
	if s.escapeAt > 0 && s.polls == s.escapeAt {
		changes.Keyboard.Add(input.KeyEscape, input.Press)
	}
	return changes, s.closeAfter > 0 && s.polls >= s.closeAfter
}

type recorder struct {
	steps      int
	fixedSteps int
	fixedDelta []time.Duration
	failStep   error
}

func (r *recorder) TypeName() string { return "recorder" }

func (r *recorder) Step(_ *models.GameObjectData, _ models.Clock) error {
	r.steps++
	return r.failStep
}

func (r *recorder) FixedStep(_ *models.GameObjectData, c models.Clock) error {
	r.fixedSteps++
	r.fixedDelta = append(r.fixedDelta, c.Delta)
	return nil
}

func newScene(t *testing.T) (*scene.Scene, *recorder) {
	t.Helper()
	s := scene.New(nil, nil)
	rec := &recorder{}
	require.NoError(t, s.NewObject("recorder").AddComponent(rec))
	return s, rec
}

func TestAccumulatorCapsBacklog(t *testing.T) {
	acc := NewFixedStepAccumulator(10*time.Millisecond, 3)

	ticks, dropped := acc.Advance(25 * time.Millisecond)
	assert.Equal(t, 2, ticks)
	assert.Zero(t, dropped)
	assert.Equal(t, 5*time.Millisecond, acc.Pending())

	ticks, dropped = acc.Advance(100 * time.Millisecond)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, 7, dropped)
	assert.Equal(t, 5*time.Millisecond, acc.Pending())

	ticks, _ = acc.Advance(-time.Second)
	assert.Zero(t, ticks)

	uncapped := NewFixedStepAccumulator(10*time.Millisecond, 0)
	ticks, dropped = uncapped.Advance(time.Second)
	assert.Equal(t, 100, ticks)
	assert.Zero(t, dropped)

	assert.Equal(t, DefaultFixedStep, NewFixedStepAccumulator(0, 1).Step())
}

func TestFPSMovingAverage(t *testing.T) {
	fps := NewFPS(2)
	assert.Zero(t, fps.Average())

	fps.Push(10 * time.Millisecond)
	fps.Push(20 * time.Millisecond)
	assert.InDelta(t, 75, fps.Average(), 1e-9)

	fps.Push(40 * time.Millisecond)
	assert.InDelta(t, 37.5, fps.Average(), 1e-9)

	fps.Push(0)
	assert.InDelta(t, 37.5, fps.Average(), 1e-9)
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	bad := DefaultOptions()
	bad.FixedStep = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidOptions)

	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilScene)

	s, _ := newScene(t)
	_, err = New(s, WithOptions(Options{FixedStep: time.Millisecond, FPSWindow: 0}))
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestFrameRunsPasses(t *testing.T) {
	s, rec := newScene(t)
	renders := 0
	e, err := New(s,
		WithTimeSource(&fakeTime{step: 20 * time.Millisecond}),
		WithOptions(Options{FixedStep: 10 * time.Millisecond, MaxFixedSteps: 5, FPSWindow: 4}),
		WithRenderer(RendererFunc(func(*scene.Scene) error { renders++; return nil })),
	)
	require.NoError(t, err)

	closing, err := e.Frame()
	require.NoError(t, err)
	assert.False(t, closing)
	assert.Equal(t, 1, rec.steps)
	assert.Zero(t, rec.fixedSteps, "first frame has no elapsed time")

	_, err = e.Frame()
	require.NoError(t, err)
	assert.Equal(t, 2, rec.steps)
	assert.Equal(t, 2, rec.fixedSteps)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, rec.fixedDelta)
	assert.Equal(t, 2, renders)

	stats := e.Stats()
	assert.Equal(t, uint64(2), stats.Frames)
	assert.Equal(t, uint64(2), stats.FixedTicks)
	assert.Equal(t, uint64(2), stats.Renders)
	assert.InDelta(t, 50, stats.FPS, 1e-6)
}

func TestStallDropsBacklog(t *testing.T) {
	s, rec := newScene(t)
	e, err := New(s,
		WithTimeSource(&fakeTime{step: time.Second}),
		WithOptions(Options{FixedStep: 10 * time.Millisecond, MaxFixedSteps: 4, FPSWindow: 1}),
	)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = e.Frame()
		require.NoError(t, err)
	}
	assert.Equal(t, 4, rec.fixedSteps)
	assert.Equal(t, uint64(96), e.Stats().DroppedTicks)
}

func TestCloseRequests(t *testing.T) {
	s, _ := newScene(t)
	src := &scriptedInput{closeAfter: 3}
	e, err := New(s, WithInput(src), WithTimeSource(&fakeTime{step: time.Millisecond}))
	require.NoError(t, err)
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(3), e.Stats().Frames)

	s, _ = newScene(t)
	e, err = New(s, WithInput(&scriptedInput{escapeAt: 2}), WithTimeSource(&fakeTime{step: time.Millisecond}))
	require.NoError(t, err)
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(2), e.Stats().Frames)
}

func TestStepErrorStopsRun(t *testing.T) {
	s, rec := newScene(t)
	boom := errors.New("boom")
	rec.failStep = boom
	e, err := New(s, WithTimeSource(&fakeTime{step: time.Millisecond}))
	require.NoError(t, err)

	err = e.Run(context.Background())
	require.ErrorIs(t, err, boom)
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, StageStep, runErr.Stage)
	assert.Equal(t, uint64(1), runErr.Frame)

	var stepErr *models.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "recorder", stepErr.Object)
}

func TestRenderErrorStage(t *testing.T) {
	s, _ := newScene(t)
	boom := errors.New("lost context")
	e, err := New(s, WithRenderer(RendererFunc(func(*scene.Scene) error { return boom })))
	require.NoError(t, err)

	_, err = e.Frame()
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, StageRender, runErr.Stage)
	assert.Equal(t, "render", runErr.Stage.String())
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newScene(t)
	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	e, err := New(s, WithFrameHook(func(Stats) {
		frames++
		if frames == 5 {
			cancel()
		}
	}))
	require.NoError(t, err)
	require.NoError(t, e.Run(ctx))
	assert.Equal(t, 5, frames)
}

func TestRunThreaded(t *testing.T) {
	s, rec := newScene(t)
	var mu sync.Mutex
	renders := 0
	e, err := New(s,
		WithInput(&scriptedInput{closeAfter: 20}),
		WithTimeSource(&fakeTime{step: 5 * time.Millisecond}),
		WithRenderer(RendererFunc(func(*scene.Scene) error {
			mu.Lock()
			renders++
			mu.Unlock()
			return nil
		})),
		WithOptions(Options{FixedStep: 10 * time.Millisecond, MaxFixedSteps: 5, FPSWindow: 8, FrameInterval: time.Millisecond}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.RunThreaded(ctx))

	stats := e.Stats()
	assert.Equal(t, uint64(20), stats.Frames)
	assert.Equal(t, 20, rec.steps)
	assert.Equal(t, 9, rec.fixedSteps)
	mu.Lock()
	assert.Equal(t, int(stats.Renders), renders)
	mu.Unlock()
}

func TestRunThreadedRenderFailure(t *testing.T) {
	s, _ := newScene(t)
	boom := errors.New("swap failed")
	e, err := New(s,
		WithRenderer(RendererFunc(func(*scene.Scene) error { return boom })),
		WithOptions(Options{FixedStep: 10 * time.Millisecond, MaxFixedSteps: 5, FPSWindow: 8, FrameInterval: time.Millisecond}),
	)
	require.NoError(t, err)
	err = e.RunThreaded(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestConcurrentRunRejected(t *testing.T) {
	s, _ := newScene(t)
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	e, err := New(s, WithFrameHook(func(Stats) {
		once.Do(func() {
			close(started)
			<-release
		})
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	<-started
	assert.ErrorIs(t, e.RunThreaded(context.Background()), ErrRunning)
	assert.ErrorIs(t, e.Run(context.Background()), ErrRunning)
	cancel()
	close(release)
	require.NoError(t, <-done)
}

func TestSnapshot(t *testing.T) {
	s, _ := newScene(t)
	e, err := New(s, WithTimeSource(&fakeTime{step: time.Millisecond}))
	require.NoError(t, err)
	_, err = e.Frame()
	require.NoError(t, err)

	e.Snapshot(func(got *scene.Scene, stats Stats) {
		assert.Same(t, s, got)
		assert.Equal(t, uint64(1), stats.Frames)
	})
}
