package landscape

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Fixture(t *testing.T) {
	g, err := Load("testdata/small.json")
	require.NoError(t, err)

	rows, cols := g.Dimensions()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Len(t, g.ActiveCells(), 5)
	assert.False(t, g.IsActive(0))

	// upland cells hold two pinubank cohorts, lowland cells one of each species
	assert.Equal(t, 0, g.CohortCount(0))
	assert.Equal(t, 2, g.CohortCount(1))
	assert.Equal(t, 2, g.CohortCount(3))
	assert.Equal(t, 2, g.CohortCount(4))
	assert.Equal(t, 10, g.TotalCohorts())

	var longevities []int
	for _, c := range g.Cohorts(4) {
		longevities = append(longevities, c.Longevity())
	}
	assert.ElementsMatch(t, []int{100, 250}, longevities)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/nope.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open landscape")
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{"bad json", `{`, "decode landscape"},
		{"unknown field", `{"cellsize": 10}`, "decode landscape"},
		{"empty map", `{"cell_length": 10, "ecoregions": [{"name": "a", "code": 1, "active": true}], "map": []}`, "map is empty"},
		{"ragged map", `{"cell_length": 10, "ecoregions": [{"name": "a", "code": 1, "active": true}], "map": [[1, 1], [1]]}`, "has 1 columns"},
		{"unknown code", `{"cell_length": 10, "ecoregions": [{"name": "a", "code": 1, "active": true}], "map": [[2]]}`, "unknown ecoregion code 2"},
		{"duplicate code", `{"cell_length": 10, "ecoregions": [{"name": "a", "code": 1}, {"name": "b", "code": 1}], "map": [[1]]}`, "duplicate map code"},
		{"bad cell length", `{"cell_length": 0, "ecoregions": [{"name": "a", "code": 1}], "map": [[1]]}`, "cell length"},
		{"bad longevity", `{"cell_length": 10, "ecoregions": [{"name": "a", "code": 1}], "species": [{"name": "s", "longevity": 0}], "map": [[1]]}`, "longevity"},
		{"unknown species", `{"cell_length": 10, "ecoregions": [{"name": "a", "code": 1}], "map": [[1]], "communities": {"a": [{"species": "s", "ages": [1]}]}}`, "unknown species"},
		{"unknown community ecoregion", `{"cell_length": 10, "ecoregions": [{"name": "a", "code": 1}], "map": [[1]], "communities": {"b": []}}`, "unknown ecoregion"},
		{"negative age", `{"cell_length": 10, "ecoregions": [{"name": "a", "code": 1}], "species": [{"name": "s", "longevity": 5}], "map": [[1]], "communities": {"a": [{"species": "s", "ages": [-1]}]}}`, "negative age"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, err := Decode(strings.NewReader(tt.json))
			if err == nil {
				_, err = def.Build()
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefinition_EncodeDecode(t *testing.T) {
	def := &Definition{
		CellLength: 250,
		Ecoregions: []EcoregionDef{{Name: "eco1", Code: 1, Active: true}},
		Species:    []SpeciesDef{{Name: "tsugcana", Longevity: 400}},
		Map:        [][]int{{1, 1}},
		Communities: map[string][]CommunityDef{
			"eco1": {{Species: "tsugcana", Ages: []int{20}}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, def.Encode(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	g, err := got.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, g.TotalCohorts())
}
