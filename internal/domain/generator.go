package domain

import "math"

// Generator decides whether a cell initiates an event and synthesizes the
// event's geometry and intensity. An initiated event is spread immediately.
type Generator struct {
	params      *Parameters
	cellLength  float64
	rng         Random
	spread      *SpreadEngine
	parityDraws bool
}

// NewGenerator wires a generator to its spread engine. With parityDraws set the
// Weibull length is drawn twice and the first draw discarded.
func NewGenerator(params *Parameters, cellLength float64, rng Random, spread *SpreadEngine, parityDraws bool) *Generator {
	return &Generator{
		params:      params,
		cellLength:  cellLength,
		rng:         rng,
		spread:      spread,
		parityDraws: parityDraws,
	}
}

// Initiate starts an event at cell with probability p and spreads it. It
// returns nil when no event starts.
func (g *Generator) Initiate(cell Cell, p float64, currentTime int) *DisturbanceEvent {
	if u := g.rng.Uniform(); p <= 0 || u > p {
		return nil
	}

	eventType := Derecho
	if g.rng.Uniform() <= g.params.TornadoProp {
		eventType = Tornado
	}
	ep := g.params.For(eventType)

	length := g.rng.Weibull(ep.LengthLambda, ep.LengthAlpha)
	if g.parityDraws {
		length = g.rng.Weibull(ep.LengthLambda, ep.LengthAlpha)
	}

	direction := WindDirection(g.rng, g.params.DirectionBreakpoints)
	intensity := WindIntensity(g.rng, ep.IntensityBreakpoints)

	jitter := g.rng.Uniform()*2 - 1
	dirRad := 0.25*float64(RemapDirection(direction))*math.Pi + jitter*0.125*math.Pi
	endRow, endCol := EndLocation(cell, length, dirRad, g.cellLength)

	ev := &DisturbanceEvent{
		Time:      currentTime,
		Start:     cell,
		EndRow:    endRow,
		EndCol:    endCol,
		Length:    length,
		Width:     ep.Width,
		Type:      eventType,
		Direction: direction,
		Intensity: intensity,
	}
	g.spread.Spread(ev, currentTime)
	return ev
}

// WindDirection draws a compass index (0 = N ... 7 = NW). Each axis share of
// the cumulative breakpoints is split evenly between its two headings.
func WindDirection(rng Random, breakpoints [4]float64) int {
	return directionCategory(breakpoints, rng.Uniform()*100)
}

func directionCategory(bps [4]float64, draw float64) int {
	running := 0.0
	for k := 0; k < 7; k++ {
		axis := k % 4
		share := bps[axis]
		if axis > 0 {
			share -= bps[axis-1]
		}
		running += share / 2
		if draw < running {
			return k
		}
	}
	return 7
}

// WindIntensity draws one of the five base intensity levels against the
// cumulative breakpoints.
func WindIntensity(rng Random, breakpoints [5]float64) float64 {
	return intensityLevel(breakpoints, rng.Uniform()*100)
}

func intensityLevel(bps [5]float64, draw float64) float64 {
	for i := 0; i < len(bps)-1; i++ {
		if draw < bps[i] {
			return IntensityLevels[i]
		}
	}
	return IntensityLevels[len(IntensityLevels)-1]
}

// RemapDirection converts a compass index to the grid's row-down orientation.
func RemapDirection(d int) int {
	switch d {
	case 0:
		return 4
	case 1:
		return 3
	case 3:
		return 1
	case 4:
		return 0
	case 5:
		return 7
	case 7:
		return 5
	}
	return d
}

// EndLocation projects the event axis from start by lengthKm along dirRad
// (radians clockwise from the grid's +row axis toward +col).
func EndLocation(start Cell, lengthKm, dirRad, cellLength float64) (row, col int) {
	lengthCells := lengthKm * 1000 / cellLength
	cols := math.Sin(dirRad) * lengthCells
	rows := math.Cos(dirRad) * lengthCells
	return start.Row + int(math.RoundToEven(rows)), start.Col + int(math.RoundToEven(cols))
}
