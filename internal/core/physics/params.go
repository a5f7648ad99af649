package physics

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidParameters = errors.New("physics: invalid integration parameters")

// IntegrationParameters drive one pipeline step.
type IntegrationParameters struct {
	// Dt is the step length in seconds. A zero Dt makes Step a no-op.
	Dt float32
	// SolverIterations is the number of velocity iterations per step.
	SolverIterations int
	// Erp is the fraction of the penetration corrected per step.
	Erp float32
	// AllowedLinearError is the penetration left uncorrected to avoid jitter.
	AllowedLinearError float32
	// PredictionDistance lets contacts be created slightly before touching.
	PredictionDistance float32
	// MaxCorrectiveVelocity bounds the velocity used to push bodies apart.
	MaxCorrectiveVelocity float32
	// RestitutionThreshold is the approach speed below which bounces are ignored.
	RestitutionThreshold float32

	SleepLinearThreshold  float32
	SleepAngularThreshold float32
	// TimeToSleep is how long an island must stay still before sleeping.
	TimeToSleep float32
}

func DefaultIntegrationParameters() IntegrationParameters {
	return IntegrationParameters{
		Dt:                    1.0 / 60.0,
		SolverIterations:      8,
		Erp:                   0.2,
		AllowedLinearError:    0.005,
		PredictionDistance:    0.02,
		MaxCorrectiveVelocity: 10,
		RestitutionThreshold:  1,
		SleepLinearThreshold:  0.05,
		SleepAngularThreshold: 0.05,
		TimeToSleep:           1,
	}
}

// WithTick returns a copy of p whose Dt equals the tick length.
func (p IntegrationParameters) WithTick(tick time.Duration) IntegrationParameters {
	p.Dt = float32(tick.Seconds())
	return p
}

func (p IntegrationParameters) Validate() error {
	switch {
	case p.Dt < 0:
		return fmt.Errorf("%w: negative dt %v", ErrInvalidParameters, p.Dt)
	case p.SolverIterations <= 0:
		return fmt.Errorf("%w: solver iterations must be positive", ErrInvalidParameters)
	case p.Erp < 0 || p.Erp > 1:
		return fmt.Errorf("%w: erp %v outside [0,1]", ErrInvalidParameters, p.Erp)
	case p.AllowedLinearError < 0 || p.PredictionDistance < 0:
		return fmt.Errorf("%w: negative tolerance", ErrInvalidParameters)
	}
	return nil
}
