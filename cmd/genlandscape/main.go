// Command genlandscape writes a synthetic landscape definition, and
// optionally a matching parameter file, for local runs and tests. Output is
// fully determined by the flags.
//
// Usage:
//
//	go run ./cmd/genlandscape \
//	  -out data/landscape.json \
//	  -params-out data/linear-wind.txt \
//	  -rows 200 -cols 200 -cell-length 100 -ecoregions 3 -seed 7
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/storm-linearwind/internal/landscape"
	"github.com/couchcryptid/storm-linearwind/internal/paramfile"
)

var species = []landscape.SpeciesDef{
	{Name: "abiebals", Longevity: 200},
	{Name: "acerrubr", Longevity: 150},
	{Name: "betupapy", Longevity: 120},
	{Name: "pinustro", Longevity: 450},
	{Name: "querrubr", Longevity: 250},
	{Name: "tsugcana", Longevity: 640},
}

type options struct {
	rows, cols    int
	cellLength    float64
	ecoregions    int
	waterFraction float64
	seed          uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the landscape JSON")
	paramsOut := flag.String("params-out", "", "optional output path for a matching parameter file")
	var opts options
	flag.IntVar(&opts.rows, "rows", 100, "grid rows")
	flag.IntVar(&opts.cols, "cols", 100, "grid columns")
	flag.Float64Var(&opts.cellLength, "cell-length", 100, "cell side in meters")
	flag.IntVar(&opts.ecoregions, "ecoregions", 3, "number of active ecoregions")
	flag.Float64Var(&opts.waterFraction, "water", 0.05, "fraction of cells in the inactive water ecoregion")
	flag.Uint64Var(&opts.seed, "seed", 1, "random seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if opts.rows <= 0 || opts.cols <= 0 || opts.ecoregions <= 0 {
		return fmt.Errorf("rows, cols and ecoregions must be positive")
	}

	def := generate(opts)
	grid, err := def.Build()
	if err != nil {
		return fmt.Errorf("generated landscape is invalid: %w", err)
	}
	if err := writeFile(*out, def.Encode); err != nil {
		return err
	}
	log.Printf("landscape: %dx%d cells, %d ecoregions -> %s", opts.rows, opts.cols, opts.ecoregions, *out)

	if *paramsOut != "" {
		text := parameterFile(def)
		if _, err := paramfile.Parse(strings.NewReader(text), grid); err != nil {
			return fmt.Errorf("generated parameter file is invalid: %w", err)
		}
		if err := writeFile(*paramsOut, func(w io.Writer) error {
			_, err := io.WriteString(w, text)
			return err
		}); err != nil {
			return err
		}
		log.Printf("parameters -> %s", *paramsOut)
	}
	return nil
}

// generate lays ecoregions out as horizontal bands with scattered water
// cells, and gives each ecoregion a random mix of species and ages.
func generate(o options) *landscape.Definition {
	rng := rand.New(rand.NewPCG(o.seed, 0))

	def := &landscape.Definition{
		CellLength:  o.cellLength,
		Ecoregions:  []landscape.EcoregionDef{{Name: "water", Code: 0, Active: false}},
		Species:     slices.Clone(species),
		Communities: map[string][]landscape.CommunityDef{},
	}
	for i := 1; i <= o.ecoregions; i++ {
		name := fmt.Sprintf("eco%d", i)
		def.Ecoregions = append(def.Ecoregions, landscape.EcoregionDef{Name: name, Code: i, Active: true})
		def.Communities[name] = community(rng)
	}

	band := max(1, o.rows/o.ecoregions)
	for r := range o.rows {
		row := make([]int, o.cols)
		code := min(r/band+1, o.ecoregions)
		for c := range row {
			if rng.Float64() < o.waterFraction {
				row[c] = 0
				continue
			}
			row[c] = code
		}
		def.Map = append(def.Map, row)
	}
	return def
}

func community(rng *rand.Rand) []landscape.CommunityDef {
	var out []landscape.CommunityDef
	for _, sp := range species {
		if rng.Float64() < 0.5 {
			continue
		}
		n := 1 + rng.IntN(3)
		ages := make([]int, n)
		for i := range ages {
			// ages on a 10-year grid below longevity
			ages[i] = 10 * (1 + rng.IntN(max(1, sp.Longevity/10-1)))
		}
		slices.Sort(ages)
		out = append(out, landscape.CommunityDef{Species: sp.Name, Ages: ages})
	}
	if len(out) == 0 {
		out = append(out, landscape.CommunityDef{Species: species[0].Name, Ages: []int{30}})
	}
	return out
}

func parameterFile(def *landscape.Definition) string {
	var b strings.Builder
	b.WriteString(`LandisData  "Linear Wind"

Timestep    10

NumEventsMean     5
NumEventsStDev    1.5

TornadoLengthLambda   4.0
TornadoLengthAlpha    1.5
TornadoWidth          0.2

TornadoIntensityTable
   40
   30
   15
   10
    5

TornadoProp   0.7

DerechoLengthLambda   50
DerechoLengthAlpha    2.0
DerechoWidth          5

DerechoIntensityTable
   25
   30
   25
   15
    5

PropIntensityVar   0.1

WindDirectionTable
>> N-S  NE-SW  E-W  SE-NW
   15
   35
   30
   20

EcoregionModifiers
`)
	for _, eco := range def.Ecoregions {
		if eco.Active {
			fmt.Fprintf(&b, "   %-10s 0.0\n", eco.Name)
		}
	}
	b.WriteString(`
WindSeverities
>> Sev   Age range        Mortality threshold
   5     0%  to  20%      0.80
   4    20%  to  50%      0.60
   3    50%  to  70%      0.40
   2    70%  to  85%      0.20
   1    85%  to 100%      0.10

IntensityMapNames   linearwind/intensity-{timestep}.asc
SeverityMapNames    linearwind/severity-{timestep}.asc
LogFile             linearwind/log.csv
`)
	return b.String()
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
