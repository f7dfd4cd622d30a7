// Package landscape is the in-memory host the disturbance core runs
// against: a row-major grid of cells, each in one ecoregion, each holding a
// list of age cohorts.
package landscape

import (
	"fmt"

	"github.com/couchcryptid/storm-linearwind/internal/domain"
)

// Species is a tree species and its maximum age.
type Species struct {
	Name      string
	Longevity int
}

// Ecoregion groups cells sharing site conditions. Only cells in active
// ecoregions take part in the simulation.
type Ecoregion struct {
	Name   string
	Code   int
	Active bool
}

type cohort struct {
	species *Species
	age     int
}

func (c *cohort) Age() int { return c.age }

func (c *cohort) Longevity() int { return c.species.Longevity }

// Grid implements domain.Landscape.
type Grid struct {
	rows, cols int
	cellLength float64

	ecoregions []Ecoregion
	ecoByName  map[string]int

	cellEco []int
	cohorts [][]*cohort
	active  []domain.Cell
}

// NewGrid builds a grid from per-cell ecoregion indexes in row-major order.
func NewGrid(rows, cols int, cellLength float64, ecoregions []Ecoregion, cellEco []int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid dimensions %dx%d: must be positive", rows, cols)
	}
	if cellLength <= 0 {
		return nil, fmt.Errorf("cell length %v: must be > 0", cellLength)
	}
	if len(cellEco) != rows*cols {
		return nil, fmt.Errorf("got %d cell ecoregions for a %dx%d grid", len(cellEco), rows, cols)
	}

	g := &Grid{
		rows:       rows,
		cols:       cols,
		cellLength: cellLength,
		ecoregions: ecoregions,
		ecoByName:  make(map[string]int, len(ecoregions)),
		cellEco:    cellEco,
		cohorts:    make([][]*cohort, rows*cols),
	}
	for i, eco := range ecoregions {
		if _, dup := g.ecoByName[eco.Name]; dup {
			return nil, fmt.Errorf("duplicate ecoregion name %q", eco.Name)
		}
		g.ecoByName[eco.Name] = i
	}
	for idx, eco := range cellEco {
		if eco < 0 || eco >= len(ecoregions) {
			return nil, fmt.Errorf("cell %d: ecoregion index %d out of range", idx, eco)
		}
		if ecoregions[eco].Active {
			g.active = append(g.active, domain.Cell{Row: idx / cols, Col: idx % cols, Index: idx})
		}
	}
	return g, nil
}

func (g *Grid) Dimensions() (rows, cols int) { return g.rows, g.cols }

func (g *Grid) CellLength() float64 { return g.cellLength }

func (g *Grid) ActiveCells() []domain.Cell { return g.active }

func (g *Grid) IsActive(index int) bool {
	if index < 0 || index >= len(g.cellEco) {
		return false
	}
	return g.ecoregions[g.cellEco[index]].Active
}

func (g *Grid) EcoregionIndex(cell domain.Cell) int { return g.cellEco[cell.Index] }

// EcoregionByName resolves an ecoregion name to its index.
func (g *Grid) EcoregionByName(name string) (int, bool) {
	idx, ok := g.ecoByName[name]
	return idx, ok
}

func (g *Grid) EcoregionCount() int { return len(g.ecoregions) }

// AddCohort places a cohort of the given species and age in a cell.
func (g *Grid) AddCohort(index int, sp *Species, age int) {
	g.cohorts[index] = append(g.cohorts[index], &cohort{species: sp, age: age})
}

// CohortCount reports the number of cohorts in a cell.
func (g *Grid) CohortCount(index int) int { return len(g.cohorts[index]) }

// TotalCohorts reports the number of cohorts on active cells.
func (g *Grid) TotalCohorts() int {
	n := 0
	for _, c := range g.active {
		n += len(g.cohorts[c.Index])
	}
	return n
}

// Cohorts returns the cohorts of a cell.
func (g *Grid) Cohorts(index int) []domain.Cohort {
	out := make([]domain.Cohort, len(g.cohorts[index]))
	for i, c := range g.cohorts[index] {
		out[i] = c
	}
	return out
}

// RemoveMarkedCohorts drops every cohort of the cell that mark selects.
func (g *Grid) RemoveMarkedCohorts(cell domain.Cell, mark func(domain.Cohort) bool) int {
	kept := g.cohorts[cell.Index][:0]
	removed := 0
	for _, c := range g.cohorts[cell.Index] {
		if mark(c) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	clear(g.cohorts[cell.Index][len(kept):])
	g.cohorts[cell.Index] = kept
	return removed
}

// Age advances every cohort on active cells by years and removes those that
// reach their species longevity. It returns the number removed.
func (g *Grid) Age(years int) int {
	if years <= 0 {
		return 0
	}
	died := 0
	for _, cell := range g.active {
		died += g.RemoveMarkedCohorts(cell, func(c domain.Cohort) bool {
			co := c.(*cohort)
			co.age += years
			return co.age >= co.species.Longevity
		})
	}
	return died
}
