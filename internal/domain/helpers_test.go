package domain

type testCohort struct {
	age       int
	longevity int
}

func (c testCohort) Age() int       { return c.age }
func (c testCohort) Longevity() int { return c.longevity }

// testLandscape is a small in-memory host for exercising the core.
type testLandscape struct {
	rows, cols int
	cellLength float64
	inactive   map[int]bool
	eco        map[int]int
	cohorts    map[int][]testCohort
	removals   map[int]int // RemoveMarkedCohorts calls per cell
}

func newTestLandscape(rows, cols int, cellLength float64) *testLandscape {
	return &testLandscape{
		rows:       rows,
		cols:       cols,
		cellLength: cellLength,
		inactive:   map[int]bool{},
		eco:        map[int]int{},
		cohorts:    map[int][]testCohort{},
		removals:   map[int]int{},
	}
}

func (l *testLandscape) Dimensions() (int, int) { return l.rows, l.cols }
func (l *testLandscape) CellLength() float64    { return l.cellLength }
func (l *testLandscape) IsActive(i int) bool    { return !l.inactive[i] }

func (l *testLandscape) ActiveCells() []Cell {
	var cells []Cell
	for r := 0; r < l.rows; r++ {
		for c := 0; c < l.cols; c++ {
			i := r*l.cols + c
			if !l.inactive[i] {
				cells = append(cells, Cell{Row: r, Col: c, Index: i})
			}
		}
	}
	return cells
}

func (l *testLandscape) EcoregionIndex(cell Cell) int { return l.eco[cell.Index] }

func (l *testLandscape) RemoveMarkedCohorts(cell Cell, mark func(Cohort) bool) int {
	l.removals[cell.Index]++
	kept := l.cohorts[cell.Index][:0]
	removed := 0
	for _, c := range l.cohorts[cell.Index] {
		if mark(c) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	l.cohorts[cell.Index] = kept
	return removed
}

func (l *testLandscape) cell(row, col int) Cell {
	return Cell{Row: row, Col: col, Index: row*l.cols + col}
}

// fillCohorts gives every cell the same cohorts.
func (l *testLandscape) fillCohorts(cohorts ...testCohort) {
	for i := 0; i < l.rows*l.cols; i++ {
		l.cohorts[i] = append([]testCohort(nil), cohorts...)
	}
}

// scriptedRandom replays fixed draws and counts what was consumed. Once a
// queue runs dry it returns the fallback value.
type scriptedRandom struct {
	uniforms []float64
	weibulls []float64
	normals  []float64

	uniformFallback float64

	uniformCalls, weibullCalls, normalCalls int
}

func (s *scriptedRandom) Uniform() float64 {
	s.uniformCalls++
	if len(s.uniforms) == 0 {
		return s.uniformFallback
	}
	v := s.uniforms[0]
	s.uniforms = s.uniforms[1:]
	return v
}

func (s *scriptedRandom) Weibull(_, _ float64) float64 {
	s.weibullCalls++
	if len(s.weibulls) == 0 {
		return 0
	}
	v := s.weibulls[0]
	s.weibulls = s.weibulls[1:]
	return v
}

func (s *scriptedRandom) Normal(mu, _ float64) float64 {
	s.normalCalls++
	if len(s.normals) == 0 {
		return mu
	}
	v := s.normals[0]
	s.normals = s.normals[1:]
	return v
}

func testSeverities() SeverityTable {
	return SeverityTable{
		{Number: 5, MinAgeFrac: 0, MaxAgeFrac: 0.2, MortalityThreshold: 0.8},
		{Number: 4, MinAgeFrac: 0.2, MaxAgeFrac: 0.5, MortalityThreshold: 0.6},
		{Number: 3, MinAgeFrac: 0.5, MaxAgeFrac: 0.7, MortalityThreshold: 0.4},
		{Number: 2, MinAgeFrac: 0.7, MaxAgeFrac: 0.85, MortalityThreshold: 0.2},
		{Number: 1, MinAgeFrac: 0.85, MaxAgeFrac: 1, MortalityThreshold: 0.1},
	}
}

func testParameters() *Parameters {
	return &Parameters{
		Timestep:       10,
		NumEventsMean:  2,
		NumEventsStDev: 0.5,
		Tornado: EventParameters{
			LengthLambda:         5,
			LengthAlpha:          1.5,
			Width:                0.5,
			IntensityBreakpoints: [5]float64{20, 40, 60, 80, 100},
		},
		Derecho: EventParameters{
			LengthLambda:         40,
			LengthAlpha:          2,
			Width:                2,
			IntensityBreakpoints: [5]float64{50, 75, 90, 97, 100},
		},
		TornadoProp:          0.7,
		DirectionBreakpoints: [4]float64{25, 50, 75, 100},
		PropIntensityVar:     0.1,
		Severities:           testSeverities(),
		LogFile:              "linearwind/log.csv",
	}
}
