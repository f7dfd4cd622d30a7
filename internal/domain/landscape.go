package domain

// Cohort is the host's view of one age cohort.
type Cohort interface {
	Age() int
	Longevity() int // of the cohort's species, years
}

// CellIterator exposes the grid shape and its active cells.
type CellIterator interface {
	Dimensions() (rows, cols int)
	// CellLength is the side of a square cell in meters.
	CellLength() float64
	// ActiveCells returns every active cell in row-major order. The order is
	// fixed for the life of the landscape.
	ActiveCells() []Cell
	IsActive(index int) bool
}

// CohortRemover removes the cohorts of a cell for which mark returns true and
// reports how many were removed.
type CohortRemover interface {
	RemoveMarkedCohorts(cell Cell, mark func(Cohort) bool) int
}

// EcoregionLookup maps a cell to its ecoregion index.
type EcoregionLookup interface {
	EcoregionIndex(cell Cell) int
}

// Landscape is everything the disturbance core needs from the host.
type Landscape interface {
	CellIterator
	CohortRemover
	EcoregionLookup
}

// AgeFraction is a cohort's age relative to its species longevity.
func AgeFraction(c Cohort) float64 {
	if c.Longevity() <= 0 {
		return 1
	}
	return float64(c.Age()) / float64(c.Longevity())
}

// cellAreaHectares converts a cell side in meters to its area in hectares.
func cellAreaHectares(cellLength float64) float64 {
	return cellLength * cellLength / 10000
}
