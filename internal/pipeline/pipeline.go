package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/storm-linearwind/internal/domain"
	"github.com/couchcryptid/storm-linearwind/internal/observability"
)

// Simulator runs one disturbance pass. *domain.Orchestrator implements it.
type Simulator interface {
	RunTimestep(currentTime int) []*domain.DisturbanceEvent
	State() *domain.SiteState
}

// Host is the landscape the simulation runs on. Age advances the cohorts
// by a number of years and reports how many died of old age.
type Host interface {
	domain.CellIterator
	Age(years int) int
}

// EventLoader writes the event records of one timestep to a destination.
type EventLoader interface {
	LoadEvents(ctx context.Context, t int, records []domain.EventRecord) error
}

// MapWriter writes the rasters of one timestep.
type MapWriter interface {
	WriteMaps(ctx context.Context, t int, severity domain.Raster[uint8], intensity domain.Raster[int32]) error
}

// Sink is a named EventLoader. A failing required sink stops the run; other
// sinks are logged and counted.
type Sink struct {
	Name     string
	Loader   EventLoader
	Required bool
}

// Schedule is the simulated time span.
type Schedule struct {
	StartTime int
	Duration  int // years
	Timestep  int // years; 0 runs a single pass at StartTime
}

// Times lists the simulation times at which a timestep runs.
func (s Schedule) Times() []int {
	if s.Timestep <= 0 {
		return []int{s.StartTime}
	}
	var times []int
	for t := s.StartTime + s.Timestep; t <= s.StartTime+s.Duration; t += s.Timestep {
		times = append(times, t)
	}
	return times
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSink adds an event destination. Sinks receive records in the order
// they were added.
func WithSink(s Sink) Option {
	return func(p *Pipeline) { p.sinks = append(p.sinks, s) }
}

// WithMapWriter sets the raster destination.
func WithMapWriter(m MapWriter) Option {
	return func(p *Pipeline) { p.maps = m }
}

// WithClock replaces the clock used to time each timestep.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Pipeline drives the simulation through its schedule and hands each
// timestep's results to the outputs.
type Pipeline struct {
	sim      Simulator
	host     Host
	schedule Schedule
	sinks    []Sink
	maps     MapWriter
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	ready    atomic.Bool
	last     atomic.Int64
}

// New creates a Pipeline with the given simulation, host and observability.
func New(sim Simulator, host Host, schedule Schedule, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		sim:      sim,
		host:     host,
		schedule: schedule,
		logger:   logger,
		metrics:  metrics,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once the first timestep has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("simulation has not completed a timestep yet")
	}
	return nil
}

// LastTime reports the time of the last completed timestep.
func (p *Pipeline) LastTime() int { return int(p.last.Load()) }

// Run executes every scheduled timestep. Cancellation is honored between
// timesteps; a cancelled run returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	times := p.schedule.Times()
	p.logger.Info("simulation started",
		"start_time", p.schedule.StartTime,
		"duration", p.schedule.Duration,
		"timestep_years", p.schedule.Timestep,
		"timesteps", len(times),
		"active_cells", len(p.host.ActiveCells()),
	)
	p.metrics.SimulationRunning.Set(1)
	defer p.metrics.SimulationRunning.Set(0)

	for _, t := range times {
		if err := ctx.Err(); err != nil {
			p.logger.Info("simulation stopping", "reason", err, "timestep", t)
			return nil
		}
		if err := p.runTimestep(ctx, t); err != nil {
			return err
		}
	}
	p.ready.Store(true)
	p.logger.Info("simulation complete", "last_time", p.LastTime())
	return nil
}

func (p *Pipeline) runTimestep(ctx context.Context, t int) error {
	start := p.clock.Now()

	events := p.sim.RunTimestep(t)
	records := domain.NewEventRecords(events)

	for _, s := range p.sinks {
		if err := s.Loader.LoadEvents(ctx, t, records); err != nil {
			if s.Required {
				return fmt.Errorf("%s sink at time %d: %w", s.Name, t, err)
			}
			p.logger.Warn("event sink failed", "sink", s.Name, "timestep", t, "error", err)
			p.metrics.SinkErrors.WithLabelValues(s.Name).Inc()
		}
	}

	if p.maps != nil {
		state := p.sim.State()
		if err := p.maps.WriteMaps(ctx, t, domain.SeverityMap(p.host, state), domain.IntensityMap(p.host, state)); err != nil {
			return fmt.Errorf("write maps at time %d: %w", t, err)
		}
	}

	senesced := p.host.Age(p.schedule.Timestep)

	var damaged, killed int
	for _, ev := range events {
		damaged += ev.SitesDamaged
		killed += ev.CohortsKilled
		p.metrics.Events.WithLabelValues(string(ev.Type)).Inc()
	}
	elapsed := p.clock.Since(start)

	p.metrics.TimestepsRun.Inc()
	p.metrics.SitesDamaged.Add(float64(damaged))
	p.metrics.CohortsKilled.Add(float64(killed))
	p.metrics.CohortsSenesced.Add(float64(senesced))
	p.metrics.EventsPerTimestep.Observe(float64(len(events)))
	p.metrics.TimestepDuration.Observe(elapsed.Seconds())
	p.metrics.LastTimestep.Set(float64(t))

	p.logger.Info("timestep complete",
		"timestep", t,
		"events", len(events),
		"sites_damaged", damaged,
		"cohorts_killed", killed,
		"cohorts_senesced", senesced,
		"duration", elapsed,
	)

	p.last.Store(int64(t))
	p.ready.Store(true)
	return nil
}
