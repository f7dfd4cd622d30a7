package domain

import "log/slog"

// eventRateArea is the reference area (km²) of the configured event rate.
const eventRateArea = 40000.0

// Orchestrator runs one disturbance pass per timestep over the landscape.
// A pass is strictly sequential: draws happen in a fixed per-cell order and
// each event sees the maxima left by the events before it.
type Orchestrator struct {
	params      *Parameters
	land        Landscape
	state       *SiteState
	rng         Random
	generator   *Generator
	parityDraws bool
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithParityDraws keeps the discarded first draw of the Weibull length and
// the Normal event count, matching the draw sequence of the original tool.
func WithParityDraws(on bool) Option {
	return func(o *Orchestrator) { o.parityDraws = on }
}

// WithLogger sets the logger used for per-timestep diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator wires the generator, spread engine and mortality evaluator
// around a fresh SiteState sized to the landscape.
func NewOrchestrator(params *Parameters, land Landscape, rng Random, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		params:      params,
		land:        land,
		rng:         rng,
		parityDraws: true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	rows, cols := land.Dimensions()
	o.state = NewSiteState(rows * cols)
	mortality := NewMortalityEvaluator(params.Severities)
	spread := NewSpreadEngine(params, land, o.state, rng, mortality)
	o.generator = NewGenerator(params, land.CellLength(), rng, spread, o.parityDraws)
	return o
}

// State exposes the per-cell disturbance variables of the last pass.
func (o *Orchestrator) State() *SiteState { return o.state }

// InitiationProbability samples the period's event count and converts it to
// a per-cell initiation probability.
func (o *Orchestrator) InitiationProbability() float64 {
	numEvents := o.rng.Normal(o.params.NumEventsMean, o.params.NumEventsStDev)
	if o.parityDraws {
		numEvents = o.rng.Normal(o.params.NumEventsMean, o.params.NumEventsStDev)
	}
	active := len(o.land.ActiveCells())
	if active == 0 {
		return 0
	}
	cellLength := o.land.CellLength()
	areaKm2 := float64(active) * cellLength * cellLength / 1e6
	expected := numEvents * float64(o.params.Timestep) / eventRateArea * areaKm2
	return expected / float64(active)
}

// RunTimestep clears the site state, then visits every active cell once and
// returns the events initiated, in initiation order.
func (o *Orchestrator) RunTimestep(currentTime int) []*DisturbanceEvent {
	o.state.Reset()

	p := o.InitiationProbability()
	o.logger.Debug("initiation probability sampled", "timestep", currentTime, "probability", p)

	var events []*DisturbanceEvent
	for _, cell := range o.land.ActiveCells() {
		if ev := o.generator.Initiate(cell, p, currentTime); ev != nil {
			events = append(events, ev)
		}
	}
	return events
}
