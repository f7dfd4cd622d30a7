package domain

import "math"

// intensityPenalty is subtracted from a site's intensity with probability
// PropIntensityVar.
const intensityPenalty = 0.20

// SpreadEngine rasterizes one event's footprint onto the landscape, records
// the winning intensities and applies mortality where an event wins a cell.
type SpreadEngine struct {
	params    *Parameters
	land      Landscape
	state     *SiteState
	rng       Random
	mortality *MortalityEvaluator
}

// NewSpreadEngine creates a spread engine writing into state.
func NewSpreadEngine(params *Parameters, land Landscape, state *SiteState, rng Random, mortality *MortalityEvaluator) *SpreadEngine {
	return &SpreadEngine{
		params:    params,
		land:      land,
		state:     state,
		rng:       rng,
		mortality: mortality,
	}
}

// Spread scans every active cell, updating ev's counters and the site state.
func (s *SpreadEngine) Spread(ev *DisturbanceEvent, currentTime int) {
	cellLength := s.land.CellLength()
	lengthCells := ev.Length * 1000 / cellLength
	radiusCells := ev.Width * 1000 / cellLength / 2

	startRow, startCol := float64(ev.Start.Row), float64(ev.Start.Col)
	endRow, endCol := float64(ev.EndRow), float64(ev.EndCol)

	var totalSeverity int64
	for _, cell := range s.land.ActiveCells() {
		row, col := float64(cell.Row), float64(cell.Col)
		if math.Hypot(startRow-row, startCol-col) > lengthCells+radiusCells {
			continue
		}
		d := SegmentDistance(row, col, startRow, startCol, endRow, endCol)
		if d > radiusCells {
			continue
		}
		ev.SitesInEvent++

		siteIntensity := AxisFalloff(d, radiusCells) * ev.Intensity
		if u := s.rng.Uniform(); s.params.PropIntensityVar > 0 && u <= s.params.PropIntensityVar {
			siteIntensity -= intensityPenalty
		}
		siteIntensity += s.params.EcoModifier(s.land.EcoregionIndex(cell))
		siteIntensity = min(max(siteIntensity, 0), 1)

		if siteIntensity <= s.state.Intensity[cell.Index] {
			continue
		}
		s.state.Intensity[cell.Index] = siteIntensity

		outcome := s.mortality.Evaluate(s.land, cell, siteIntensity)
		ev.CohortsKilled += outcome.CohortsKilled
		if outcome.Severity > 0 {
			s.state.Event[cell.Index] = ev
			s.state.Disturbed[cell.Index] = true
			s.state.TimeOfLastEvent[cell.Index] = currentTime
			ev.SitesDamaged++
			totalSeverity += int64(outcome.Severity)
		}
		if outcome.Severity > s.state.Severity[cell.Index] {
			s.state.Severity[cell.Index] = outcome.Severity
		}
	}

	if ev.SitesDamaged > 0 {
		ev.MeanSeverity = float64(totalSeverity) / float64(ev.SitesDamaged)
	}
	area := cellAreaHectares(cellLength)
	ev.AreaHectares = float64(ev.SitesInEvent) * area
	ev.DamagedArea = float64(ev.SitesDamaged) * area
}

// SegmentDistance is the distance from (row, col) to the nearest point of the
// segment from start to end. The projection runs from end, so a zero-length
// segment measures the distance to end.
func SegmentDistance(row, col, startRow, startCol, endRow, endCol float64) float64 {
	px := startCol - endCol
	py := startRow - endRow
	squareP := px*px + py*py

	u := 0.0
	if squareP > 0 {
		u = ((col-endCol)*px + (row-endRow)*py) / squareP
		u = min(max(u, 0), 1)
	}
	x := endCol + u*px
	y := endRow + u*py
	return math.Hypot(x-col, y-row)
}

// AxisFalloff scales intensity linearly from 1 on the event axis to 0 at the
// footprint radius. A zero radius keeps full intensity on the axis.
func AxisFalloff(d, radius float64) float64 {
	if radius <= 0 {
		if d <= 0 {
			return 1
		}
		return 0
	}
	return -1/radius*d + 1
}
