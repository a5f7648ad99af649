// Package config loads the runtime configuration from YAML. Values missing
// from the document keep their defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/glengine/internal/core/observability/log"
	"github.com/zeusync/glengine/internal/core/physics"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Engine    Engine    `json:"engine" yaml:"engine"`
	Physics   Physics   `json:"physics" yaml:"physics"`
	Display   Display   `json:"display" yaml:"display"`
	Log       Log       `json:"log" yaml:"log"`
	Inspector Inspector `json:"inspector" yaml:"inspector"`
}

type Engine struct {
	FixedStep     time.Duration `json:"fixed_step" yaml:"fixed_step"`
	MaxFixedSteps int           `json:"max_fixed_steps" yaml:"max_fixed_steps"`
	Threaded      bool          `json:"threaded" yaml:"threaded"`
	FPSWindow     int           `json:"fps_window" yaml:"fps_window"`
	FrameInterval time.Duration `json:"frame_interval" yaml:"frame_interval"`
}

type Physics struct {
	Gravity            [3]float32 `json:"gravity" yaml:"gravity"`
	SolverIterations   int        `json:"solver_iterations" yaml:"solver_iterations"`
	Erp                float32    `json:"erp" yaml:"erp"`
	AllowedPenetration float32    `json:"allowed_penetration" yaml:"allowed_penetration"`
	// Pairing is "skip" or "strict".
	Pairing string `json:"pairing" yaml:"pairing"`
}

type Display struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	// FOV is the vertical field of view in degrees.
	FOV      float32 `json:"fov" yaml:"fov"`
	NearClip float32 `json:"near_clip" yaml:"near_clip"`
	FarClip  float32 `json:"far_clip" yaml:"far_clip"`
}

type Log struct {
	Level    string `json:"level" yaml:"level"`
	Encoding string `json:"encoding" yaml:"encoding"`
}

type Inspector struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Addr     string        `json:"addr" yaml:"addr"`
	Interval time.Duration `json:"interval" yaml:"interval"`
	// Token, when set, is required as a bearer token or ?token= query.
	Token string `json:"token" yaml:"token"`
	// MaxClients caps concurrent websocket streams; 0 keeps the server default.
	MaxClients int `json:"max_clients" yaml:"max_clients"`
}

func Default() Config {
	params := physics.DefaultIntegrationParameters()
	return Config{
		Engine: Engine{
			FixedStep:     time.Second / 60,
			MaxFixedSteps: 5,
			FPSWindow:     30,
		},
		Physics: Physics{
			Gravity:            [3]float32{0, -9.81, 0},
			SolverIterations:   params.SolverIterations,
			Erp:                params.Erp,
			AllowedPenetration: params.AllowedLinearError,
			Pairing:            "skip",
		},
		Display: Display{
			Width:    1280,
			Height:   720,
			FOV:      60,
			NearClip: 0.1,
			FarClip:  1000,
		},
		Log: Log{Level: "info", Encoding: "json"},
		Inspector: Inspector{
			Addr:     "127.0.0.1:7070",
			Interval: 250 * time.Millisecond,
		},
	}
}

// LoadYAML decodes r over the defaults and validates the result. An empty
// document yields the defaults.
func LoadYAML(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := LoadYAML(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Engine.FixedStep > 0, "engine.fixed_step must be positive, got %s", c.Engine.FixedStep)
	check(c.Engine.MaxFixedSteps >= 0, "engine.max_fixed_steps must not be negative")
	check(c.Engine.FPSWindow >= 1, "engine.fps_window must be at least 1")
	check(c.Engine.FrameInterval >= 0, "engine.frame_interval must not be negative")

	check(c.Physics.SolverIterations > 0, "physics.solver_iterations must be positive")
	check(c.Physics.Erp >= 0 && c.Physics.Erp <= 1, "physics.erp must be within [0,1], got %v", c.Physics.Erp)
	check(c.Physics.AllowedPenetration >= 0, "physics.allowed_penetration must not be negative")
	check(c.Physics.Pairing == "skip" || c.Physics.Pairing == "strict", "physics.pairing must be skip or strict, got %q", c.Physics.Pairing)

	check(c.Display.Width > 0 && c.Display.Height > 0, "display size must be positive, got %dx%d", c.Display.Width, c.Display.Height)
	check(c.Display.FOV > 0 && c.Display.FOV < 180, "display.fov must be within (0,180), got %v", c.Display.FOV)
	check(c.Display.NearClip > 0 && c.Display.FarClip > c.Display.NearClip, "display clip planes must satisfy 0 < near < far")

	_, err := log.ParseLevel(c.Log.Level)
	check(err == nil, "log.level %q is unknown", c.Log.Level)
	check(c.Log.Encoding == "json" || c.Log.Encoding == "console", "log.encoding must be json or console, got %q", c.Log.Encoding)

	if c.Inspector.Enabled {
		check(c.Inspector.Addr != "", "inspector.addr is required when the inspector is enabled")
		check(c.Inspector.Interval > 0, "inspector.interval must be positive")
		check(c.Inspector.MaxClients >= 0, "inspector.max_clients must not be negative")
	}
	return errors.Join(errs...)
}

// IntegrationParameters derives the physics step parameters; Dt is the
// fixed tick length.
func (c Config) IntegrationParameters() physics.IntegrationParameters {
	p := physics.DefaultIntegrationParameters().WithTick(c.Engine.FixedStep)
	p.SolverIterations = c.Physics.SolverIterations
	p.Erp = c.Physics.Erp
	p.AllowedLinearError = c.Physics.AllowedPenetration
	return p
}

func (p Physics) GravityVec() mgl32.Vec3 { return mgl32.Vec3(p.Gravity) }

func (d Display) Aspect() float32 { return float32(d.Width) / float32(d.Height) }

// Projection is the perspective projection for the display.
func (d Display) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(d.FOV), d.Aspect(), d.NearClip, d.FarClip)
}

// LogOptions maps the log section onto logger options. The level has been
// validated by Load.
func (l Log) Options() log.Options {
	level, _ := log.ParseLevel(l.Level)
	return log.Options{Level: level, Encoding: l.Encoding}
}
