package domain

import "math"

// Raster is a row-major grid of map codes.
type Raster[T uint8 | int32] struct {
	Rows   int
	Cols   int
	Values []T
}

// SeverityMap encodes the timestep's severities: 0 for inactive cells, 1 for
// undisturbed active cells and severity+1 for disturbed cells.
func SeverityMap(land CellIterator, state *SiteState) Raster[uint8] {
	rows, cols := land.Dimensions()
	r := Raster[uint8]{Rows: rows, Cols: cols, Values: make([]uint8, rows*cols)}
	for i := range r.Values {
		switch {
		case !land.IsActive(i):
			r.Values[i] = 0
		case state.Disturbed[i]:
			r.Values[i] = state.Severity[i] + 1
		default:
			r.Values[i] = 1
		}
	}
	return r
}

// IntensityMap encodes the timestep's intensities as whole percentages, 0 for
// inactive cells.
func IntensityMap(land CellIterator, state *SiteState) Raster[int32] {
	rows, cols := land.Dimensions()
	r := Raster[int32]{Rows: rows, Cols: cols, Values: make([]int32, rows*cols)}
	for i := range r.Values {
		if land.IsActive(i) {
			r.Values[i] = int32(math.Round(state.Intensity[i] * 100))
		}
	}
	return r
}
