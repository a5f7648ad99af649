// Package engine drives a scene: it polls input, runs the frame pass, runs
// as many fixed passes as real time allows and renders, either on one
// goroutine or split between a step and a render goroutine that share a
// single game-state lock.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/glengine/internal/core/input"
	"github.com/zeusync/glengine/internal/core/models"
	"github.com/zeusync/glengine/internal/core/observability/log"
	"github.com/zeusync/glengine/internal/core/scene"
)

const (
	DefaultFixedStep     = time.Second / 60
	DefaultMaxFixedSteps = 5
	DefaultFPSWindow     = 30
)

// TimeSource abstracts the wall clock so loops can be driven in tests.
type TimeSource interface {
	Now() time.Time
}

type systemTime struct{}

func (systemTime) Now() time.Time { return time.Now() }

// Renderer presents one frame of the scene. It runs with the game-state
// lock held and must not mutate component data.
type Renderer interface {
	Render(s *scene.Scene) error
}

type RendererFunc func(s *scene.Scene) error

func (f RendererFunc) Render(s *scene.Scene) error { return f(s) }

// SceneRenderer draws through the scene's own traversal.
var SceneRenderer Renderer = RendererFunc(func(s *scene.Scene) error {
	s.Render()
	return nil
})

type Options struct {
	FixedStep     time.Duration
	MaxFixedSteps int
	FPSWindow     int
	// FrameInterval paces Run and both goroutines of RunThreaded. Zero
	// runs unpaced.
	FrameInterval time.Duration
}

func DefaultOptions() Options {
	return Options{
		FixedStep:     DefaultFixedStep,
		MaxFixedSteps: DefaultMaxFixedSteps,
		FPSWindow:     DefaultFPSWindow,
	}
}

func (o Options) Validate() error {
	switch {
	case o.FixedStep <= 0:
		return fmt.Errorf("%w: fixed step must be positive", ErrInvalidOptions)
	case o.MaxFixedSteps < 0:
		return fmt.Errorf("%w: max fixed steps must not be negative", ErrInvalidOptions)
	case o.FPSWindow < 1:
		return fmt.Errorf("%w: fps window must be at least 1", ErrInvalidOptions)
	case o.FrameInterval < 0:
		return fmt.Errorf("%w: frame interval must not be negative", ErrInvalidOptions)
	}
	return nil
}

type Option func(*Engine)

func WithInput(src input.Source) Option   { return func(e *Engine) { e.input = src } }
func WithRenderer(r Renderer) Option      { return func(e *Engine) { e.renderer = r } }
func WithTimeSource(ts TimeSource) Option { return func(e *Engine) { e.time = ts } }
func WithLogger(logger log.Log) Option    { return func(e *Engine) { e.log = log.OrNop(logger) } }
func WithOptions(opts Options) Option     { return func(e *Engine) { e.opts = opts } }
func WithFrameHook(fn func(Stats)) Option { return func(e *Engine) { e.onFrame = fn } }

// Stats describe the loop so far.
type Stats struct {
	Frames       uint64
	FixedTicks   uint64
	DroppedTicks uint64
	Renders      uint64
	FPS          float64
	LastFrame    time.Duration
}

// Engine owns the outer loop around one scene. All scene access, including
// read-only access by tooling, goes through the game-state lock.
type Engine struct {
	log      log.Log
	scene    *scene.Scene
	input    input.Source
	renderer Renderer
	time     TimeSource
	opts     Options
	onFrame  func(Stats)

	mu      sync.Mutex
	state   *input.State
	fixed   *FixedStepAccumulator
	fps     *FPS
	last    time.Time
	stats   Stats
	closing bool

	running atomic.Bool
}

func New(s *scene.Scene, options ...Option) (*Engine, error) {
	if s == nil {
		return nil, ErrNilScene
	}
	e := &Engine{
		log:      log.NewNop(),
		scene:    s,
		renderer: SceneRenderer,
		time:     systemTime{},
		opts:     DefaultOptions(),
		state:    input.NewState(),
	}
	for _, opt := range options {
		opt(e)
	}
	if err := e.opts.Validate(); err != nil {
		return nil, err
	}
	e.log = e.log.With(log.String("component", "engine"))
	e.fixed = NewFixedStepAccumulator(e.opts.FixedStep, e.opts.MaxFixedSteps)
	e.fps = NewFPS(e.opts.FPSWindow)
	return e, nil
}

func (e *Engine) Scene() *scene.Scene { return e.scene }
func (e *Engine) Options() Options    { return e.opts }

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Snapshot runs fn with exclusive access to the scene. fn must not keep
// references to scene data after it returns.
func (e *Engine) Snapshot(fn func(s *scene.Scene, stats Stats)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.scene, e.stats)
}

// RequestClose makes the running loop return after the current frame.
func (e *Engine) RequestClose() {
	e.mu.Lock()
	e.closing = true
	e.mu.Unlock()
}

// Frame runs one iteration of the single-goroutine loop: input, frame pass,
// fixed passes, render. It reports whether a close was requested.
func (e *Engine) Frame() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.update(); err != nil {
		return e.closing, err
	}
	if err := e.render(); err != nil {
		return e.closing, err
	}
	e.notify()
	return e.closing, nil
}

// update runs with mu held.
func (e *Engine) update() error {
	now := e.time.Now()
	var delta time.Duration
	if !e.last.IsZero() {
		delta = now.Sub(e.last)
	}
	e.last = now

	e.pollInput()

	e.stats.Frames++
	e.stats.LastFrame = delta
	e.fps.Push(delta)
	e.stats.FPS = e.fps.Average()

	clock := models.Clock{Delta: delta, Input: e.state, Frame: e.stats.Frames}
	if err := e.scene.StepRecursive(clock); err != nil {
		return &RunError{Stage: StageStep, Frame: e.stats.Frames, Err: err}
	}

	ticks, dropped := e.fixed.Advance(delta)
	if dropped > 0 {
		e.stats.DroppedTicks += uint64(dropped)
		e.log.Warn("fixed step backlog dropped",
			log.Int("dropped", dropped),
			log.Int("ran", ticks),
			log.Duration("step", e.fixed.Step()),
		)
	}
	for i := 0; i < ticks; i++ {
		e.stats.FixedTicks++
		fixedClock := models.Clock{Delta: e.fixed.Step(), Input: e.state, Frame: e.stats.FixedTicks}
		if err := e.scene.FixedStepRecursive(fixedClock); err != nil {
			return &RunError{Stage: StageFixedStep, Frame: e.stats.Frames, Err: err}
		}
	}
	return nil
}

func (e *Engine) pollInput() {
	if e.input == nil {
		return
	}
	changes, closeRequested := e.input.Poll()
	if changes != nil {
		e.state.Merge(changes)
	}
	if closeRequested || e.state.Keyboard.IsPressed(input.KeyEscape) {
		e.closing = true
	}
}

// render runs with mu held.
func (e *Engine) render() error {
	if err := e.renderer.Render(e.scene); err != nil {
		return &RunError{Stage: StageRender, Frame: e.stats.Frames, Err: err}
	}
	e.stats.Renders++
	return nil
}

func (e *Engine) notify() {
	if e.onFrame != nil {
		e.onFrame(e.stats)
	}
}

// Run loops Frame until a close is requested, a pass fails or ctx is done.
// Cancellation is checked between frames; a started frame always completes.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer e.running.Store(false)

	e.log.Info("engine loop started", log.Duration("fixed_step", e.opts.FixedStep), log.Bool("threaded", false))
	pace := newPacer(e.opts.FrameInterval)
	defer pace.stop()
	for {
		closing, err := e.Frame()
		if err != nil {
			e.log.Error("engine loop failed", log.Error(err))
			return err
		}
		if closing {
			e.log.Info("engine loop closed", log.Uint64("frames", e.Stats().Frames))
			return nil
		}
		if err := pace.wait(ctx); err != nil {
			return nil
		}
	}
}

// RunThreaded runs the passes and rendering on two goroutines. The step
// goroutine holds the game-state lock while it runs the frame and fixed
// passes; the render goroutine holds it while it renders. The first error
// cancels both.
func (e *Engine) RunThreaded(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer e.running.Store(false)

	e.log.Info("engine loop started", log.Duration("fixed_step", e.opts.FixedStep), log.Bool("threaded", true))
	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	var closeOnce sync.Once
	finish := func() { closeOnce.Do(func() { close(done) }) }

	g.Go(func() error {
		defer finish()
		pace := newPacer(e.opts.FrameInterval)
		defer pace.stop()
		for {
			e.mu.Lock()
			err := e.update()
			closing := e.closing
			e.mu.Unlock()
			if err != nil {
				return err
			}
			if closing {
				return nil
			}
			if pace.wait(ctx) != nil {
				return nil
			}
		}
	})

	g.Go(func() error {
		pace := newPacer(e.opts.FrameInterval)
		defer pace.stop()
		for {
			select {
			case <-done:
				return nil
			default:
			}
			e.mu.Lock()
			err := e.render()
			if err == nil {
				e.notify()
			}
			e.mu.Unlock()
			if err != nil {
				return err
			}
			if pace.wait(ctx) != nil {
				return nil
			}
		}
	})

	err := g.Wait()
	if err != nil {
		e.log.Error("engine loop failed", log.Error(err))
		return err
	}
	e.log.Info("engine loop closed", log.Uint64("frames", e.Stats().Frames))
	return nil
}

// pacer sleeps out the remainder of a frame interval.
type pacer struct {
	ticker *time.Ticker
}

func newPacer(interval time.Duration) *pacer {
	if interval <= 0 {
		return &pacer{}
	}
	return &pacer{ticker: time.NewTicker(interval)}
}

func (p *pacer) wait(ctx context.Context) error {
	if p.ticker == nil {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ticker.C:
		return nil
	}
}

func (p *pacer) stop() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
}
