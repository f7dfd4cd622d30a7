package domain

// SiteState holds the per-cell disturbance variables, indexed by Cell.Index.
// The orchestrator owns it; the spread and mortality passes write it and the
// map writers read it after the timestep.
type SiteState struct {
	Intensity       []float64
	Severity        []uint8
	Disturbed       []bool
	TimeOfLastEvent []int
	Event           []*DisturbanceEvent // event that last damaged the cell this timestep
}

// NewSiteState allocates state for a grid of n cells.
func NewSiteState(n int) *SiteState {
	return &SiteState{
		Intensity:       make([]float64, n),
		Severity:        make([]uint8, n),
		Disturbed:       make([]bool, n),
		TimeOfLastEvent: make([]int, n),
		Event:           make([]*DisturbanceEvent, n),
	}
}

// Reset returns every cell to undisturbed for a new timestep. TimeOfLastEvent
// persists across timesteps.
func (s *SiteState) Reset() {
	clear(s.Intensity)
	clear(s.Severity)
	clear(s.Disturbed)
	clear(s.Event)
}
