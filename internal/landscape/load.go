package landscape

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Definition is the JSON form of a landscape.
type Definition struct {
	CellLength  float64                   `json:"cell_length"`
	Ecoregions  []EcoregionDef            `json:"ecoregions"`
	Species     []SpeciesDef              `json:"species"`
	Map         [][]int                   `json:"map"`
	Communities map[string][]CommunityDef `json:"communities,omitempty"`
}

type EcoregionDef struct {
	Name   string `json:"name"`
	Code   int    `json:"code"`
	Active bool   `json:"active"`
}

type SpeciesDef struct {
	Name      string `json:"name"`
	Longevity int    `json:"longevity"`
}

// CommunityDef lists the cohort ages of one species. Every cell of the
// owning ecoregion starts with these cohorts.
type CommunityDef struct {
	Species string `json:"species"`
	Ages    []int  `json:"ages"`
}

// Load reads a landscape definition file and builds its grid.
func Load(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open landscape: %w", err)
	}
	defer f.Close()

	def, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g, err := def.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Decode parses a landscape definition.
func Decode(r io.Reader) (*Definition, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode landscape: %w", err)
	}
	return &def, nil
}

// Encode writes the definition as indented JSON.
func (d *Definition) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode landscape: %w", err)
	}
	return nil
}

// Build validates the definition and constructs the grid with its initial
// cohorts.
func (d *Definition) Build() (*Grid, error) {
	if len(d.Map) == 0 || len(d.Map[0]) == 0 {
		return nil, errors.New("map is empty")
	}
	rows, cols := len(d.Map), len(d.Map[0])

	ecos := make([]Ecoregion, len(d.Ecoregions))
	byCode := make(map[int]int, len(d.Ecoregions))
	for i, e := range d.Ecoregions {
		if e.Name == "" {
			return nil, fmt.Errorf("ecoregion %d: missing name", i+1)
		}
		if _, dup := byCode[e.Code]; dup {
			return nil, fmt.Errorf("ecoregion %q: duplicate map code %d", e.Name, e.Code)
		}
		byCode[e.Code] = i
		ecos[i] = Ecoregion(e)
	}

	cellEco := make([]int, 0, rows*cols)
	for r, row := range d.Map {
		if len(row) != cols {
			return nil, fmt.Errorf("map row %d: has %d columns, want %d", r+1, len(row), cols)
		}
		for c, code := range row {
			idx, ok := byCode[code]
			if !ok {
				return nil, fmt.Errorf("map row %d, column %d: unknown ecoregion code %d", r+1, c+1, code)
			}
			cellEco = append(cellEco, idx)
		}
	}

	g, err := NewGrid(rows, cols, d.CellLength, ecos, cellEco)
	if err != nil {
		return nil, err
	}

	species := make(map[string]*Species, len(d.Species))
	for _, s := range d.Species {
		if s.Longevity <= 0 {
			return nil, fmt.Errorf("species %q: longevity %d must be > 0", s.Name, s.Longevity)
		}
		if _, dup := species[s.Name]; dup {
			return nil, fmt.Errorf("duplicate species %q", s.Name)
		}
		species[s.Name] = &Species{Name: s.Name, Longevity: s.Longevity}
	}

	for ecoName, community := range d.Communities {
		ecoIdx, ok := g.EcoregionByName(ecoName)
		if !ok {
			return nil, fmt.Errorf("community: unknown ecoregion %q", ecoName)
		}
		for _, member := range community {
			sp, ok := species[member.Species]
			if !ok {
				return nil, fmt.Errorf("community %q: unknown species %q", ecoName, member.Species)
			}
			for _, age := range member.Ages {
				if age < 0 {
					return nil, fmt.Errorf("community %q: species %q has negative age %d", ecoName, sp.Name, age)
				}
			}
			for idx, eco := range cellEco {
				if eco != ecoIdx {
					continue
				}
				for _, age := range member.Ages {
					g.AddCohort(idx, sp, age)
				}
			}
		}
	}
	return g, nil
}
