package domain

import (
	"errors"
	"fmt"
	"math"
)

// IntensityLevels are the base intensities of the five wind-intensity categories.
var IntensityLevels = [5]float64{0.2, 0.4, 0.6, 0.8, 1.0}

// EventParameters configures one event type.
type EventParameters struct {
	LengthLambda float64 // Weibull scale, km
	LengthAlpha  float64 // Weibull shape
	Width        float64 // km

	// IntensityBreakpoints are cumulative percentages for the five intensity
	// categories; the last is 100.
	IntensityBreakpoints [5]float64
}

// Parameters is the validated, immutable configuration of a run.
type Parameters struct {
	Timestep       int // years
	NumEventsMean  float64
	NumEventsStDev float64

	Tornado     EventParameters
	Derecho     EventParameters
	TornadoProp float64

	// DirectionBreakpoints are cumulative percentages for the N–S, NE–SW,
	// E–W and SE–NW axes; the last is 100.
	DirectionBreakpoints [4]float64

	PropIntensityVar float64

	// EcoModifiers holds the additive intensity offset per ecoregion index.
	// Missing entries are 0.
	EcoModifiers []float64

	Severities SeverityTable

	SeverityMapNames  string
	IntensityMapNames string
	LogFile           string
}

// For returns the parameters of the given event type.
func (p *Parameters) For(t EventType) EventParameters {
	if t == Tornado {
		return p.Tornado
	}
	return p.Derecho
}

// EcoModifier returns the intensity offset of an ecoregion.
func (p *Parameters) EcoModifier(ecoregion int) float64 {
	if ecoregion < 0 || ecoregion >= len(p.EcoModifiers) {
		return 0
	}
	return p.EcoModifiers[ecoregion]
}

// Validate checks every scalar range and table invariant.
func (p *Parameters) Validate() error {
	if p.Timestep < 0 {
		return fmt.Errorf("timestep %d: must be >= 0", p.Timestep)
	}
	if p.NumEventsMean < 0 {
		return fmt.Errorf("NumEventsMean %v: must be >= 0", p.NumEventsMean)
	}
	for _, et := range []EventType{Tornado, Derecho} {
		if err := p.For(et).validate(); err != nil {
			return fmt.Errorf("%s: %w", et, err)
		}
	}
	if p.TornadoProp < 0 || p.TornadoProp > 1 {
		return fmt.Errorf("TornadoProp %v: must be between 0 and 1", p.TornadoProp)
	}
	if p.PropIntensityVar < 0 || p.PropIntensityVar > 1 {
		return fmt.Errorf("PropIntensityVar %v: must be between 0 and 1", p.PropIntensityVar)
	}
	if err := checkBreakpoints(p.DirectionBreakpoints[:]); err != nil {
		return fmt.Errorf("wind direction table: %w", err)
	}
	if err := p.Severities.Validate(); err != nil {
		return fmt.Errorf("wind severities: %w", err)
	}
	if p.LogFile == "" {
		return errors.New("log file is required")
	}
	return nil
}

func (e EventParameters) validate() error {
	if e.LengthLambda < 0 {
		return fmt.Errorf("length lambda %v: must be >= 0", e.LengthLambda)
	}
	if e.LengthAlpha <= 0 {
		return fmt.Errorf("length alpha %v: must be > 0", e.LengthAlpha)
	}
	if e.Width < 0 {
		return fmt.Errorf("width %v: must be >= 0", e.Width)
	}
	if err := checkBreakpoints(e.IntensityBreakpoints[:]); err != nil {
		return fmt.Errorf("intensity table: %w", err)
	}
	return nil
}

// checkBreakpoints verifies a cumulative percentage table is non-decreasing
// and ends at 100.
func checkBreakpoints(bps []float64) error {
	prev := 0.0
	for i, v := range bps {
		if v < prev {
			return fmt.Errorf("row %d: percentages must not be negative", i+1)
		}
		prev = v
	}
	if math.Abs(prev-100) > 1e-9 {
		return fmt.Errorf("percentages sum to %v, not 100", prev)
	}
	return nil
}
