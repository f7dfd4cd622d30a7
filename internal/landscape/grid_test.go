package landscape

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-linearwind/internal/domain"
)

var _ domain.Landscape = (*Grid)(nil)

func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	ecos := []Ecoregion{
		{Name: "water", Code: 0, Active: false},
		{Name: "upland", Code: 1, Active: true},
	}
	g, err := NewGrid(2, 3, 30, ecos, []int{
		0, 1, 1,
		1, 1, 0,
	})
	require.NoError(t, err)
	return g
}

func TestNewGrid_ActiveCellsRowMajor(t *testing.T) {
	g := newTestGrid(t)

	rows, cols := g.Dimensions()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.InDelta(t, 30.0, g.CellLength(), 1e-12)

	want := []domain.Cell{
		{Row: 0, Col: 1, Index: 1},
		{Row: 0, Col: 2, Index: 2},
		{Row: 1, Col: 0, Index: 3},
		{Row: 1, Col: 1, Index: 4},
	}
	if diff := cmp.Diff(want, g.ActiveCells()); diff != "" {
		t.Errorf("active cells mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, g.IsActive(0))
	assert.True(t, g.IsActive(4))
	assert.False(t, g.IsActive(5))
	assert.False(t, g.IsActive(-1))
	assert.False(t, g.IsActive(6))
}

func TestNewGrid_Errors(t *testing.T) {
	ecos := []Ecoregion{{Name: "a", Active: true}}
	tests := []struct {
		name    string
		rows    int
		cols    int
		length  float64
		ecos    []Ecoregion
		cellEco []int
	}{
		{"zero rows", 0, 1, 30, ecos, nil},
		{"zero cell length", 1, 1, 0, ecos, []int{0}},
		{"wrong cell count", 1, 2, 30, ecos, []int{0}},
		{"ecoregion out of range", 1, 1, 30, ecos, []int{1}},
		{"duplicate ecoregion", 1, 1, 30, []Ecoregion{{Name: "a"}, {Name: "a"}}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.rows, tt.cols, tt.length, tt.ecos, tt.cellEco)
			require.Error(t, err)
		})
	}
}

func TestGrid_EcoregionLookup(t *testing.T) {
	g := newTestGrid(t)

	idx, ok := g.EcoregionByName("upland")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	_, ok = g.EcoregionByName("desert")
	assert.False(t, ok)
	assert.Equal(t, 2, g.EcoregionCount())
	assert.Equal(t, 1, g.EcoregionIndex(domain.Cell{Row: 1, Col: 1, Index: 4}))
}

func TestGrid_RemoveMarkedCohorts(t *testing.T) {
	g := newTestGrid(t)
	sp := &Species{Name: "acersacc", Longevity: 300}
	for _, age := range []int{10, 50, 150, 290} {
		g.AddCohort(1, sp, age)
	}
	cell := domain.Cell{Row: 0, Col: 1, Index: 1}

	removed := g.RemoveMarkedCohorts(cell, func(c domain.Cohort) bool { return c.Age() >= 100 })

	assert.Equal(t, 2, removed)
	require.Equal(t, 2, g.CohortCount(1))
	ages := []int{}
	for _, c := range g.Cohorts(1) {
		ages = append(ages, c.Age())
		assert.Equal(t, 300, c.Longevity())
	}
	assert.Equal(t, []int{10, 50}, ages)
}

func TestGrid_AgeRemovesSenescentCohorts(t *testing.T) {
	g := newTestGrid(t)
	sp := &Species{Name: "betupapy", Longevity: 100}
	g.AddCohort(1, sp, 90)
	g.AddCohort(1, sp, 5)
	g.AddCohort(3, sp, 95)
	g.AddCohort(0, sp, 95) // inactive cell, not aged

	died := g.Age(10)

	assert.Equal(t, 2, died)
	assert.Equal(t, 1, g.CohortCount(1))
	assert.Equal(t, 15, g.Cohorts(1)[0].Age())
	assert.Equal(t, 0, g.CohortCount(3))
	assert.Equal(t, 95, g.Cohorts(0)[0].Age())
	assert.Equal(t, 1, g.TotalCohorts())
}

func TestGrid_AgeZeroYears(t *testing.T) {
	g := newTestGrid(t)
	g.AddCohort(1, &Species{Name: "x", Longevity: 10}, 9)
	assert.Equal(t, 0, g.Age(0))
	assert.Equal(t, 9, g.Cohorts(1)[0].Age())
}
