// Command validate checks a parameter file against a landscape and, when
// given, the outputs of a finished run: the event log and the map rasters.
// It reports every problem it finds rather than stopping at the first.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -params data/linear-wind.txt \
//	  -landscape data/landscape.json \
//	  -output-dir out \
//	  -sqlite out/events.db
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/storm-linearwind/internal/adapter/csvlog"
	"github.com/couchcryptid/storm-linearwind/internal/adapter/raster"
	"github.com/couchcryptid/storm-linearwind/internal/adapter/sqlite"
	"github.com/couchcryptid/storm-linearwind/internal/domain"
	"github.com/couchcryptid/storm-linearwind/internal/landscape"
	"github.com/couchcryptid/storm-linearwind/internal/paramfile"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	skipped bool
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	paramsPath := flag.String("params", "", "parameter file")
	landscapePath := flag.String("landscape", "", "landscape definition JSON")
	outputDir := flag.String("output-dir", "", "directory of a finished run; enables output checks")
	archivePath := flag.String("sqlite", "", "event archive of the same run; checked against the event log")
	flag.Parse()

	if *paramsPath == "" || *landscapePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*paramsPath, *landscapePath, *outputDir, *archivePath))
}

func run(paramsPath, landscapePath, outputDir, archivePath string) int {
	fmt.Println("=== Linear Wind Input Validation ===")
	fmt.Println()

	grid, err := landscape.Load(landscapePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load landscape: %v\n", err)
		return 1
	}

	inputs := &phase{name: "Phase 1: Parameter file"}
	params, err := paramfile.Load(paramsPath, grid)
	if err != nil {
		var pe *paramfile.Error
		if errors.As(err, &pe) && pe.Line > 0 {
			inputs.errorf("line %d: %s", pe.Line, pe.Msg)
		} else {
			inputs.errorf("%v", err)
		}
	}

	phases := []*phase{inputs}
	if params != nil {
		phases = append(phases, validateTemplates(params))
		phases = append(phases, validateEventLog(params, grid, outputDir))
		phases = append(phases, validateMaps(params, grid, outputDir))
		phases = append(phases, validateArchive(context.Background(), params, outputDir, archivePath))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "SKIP"
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	rows, cols := grid.Dimensions()
	fmt.Println()
	fmt.Printf("Landscape: %dx%d cells, %d active, %d cohorts\n", rows, cols, len(grid.ActiveCells()), grid.TotalCohorts())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 2: Output paths ──

func validateTemplates(params *domain.Parameters) *phase {
	p := &phase{name: "Phase 2: Output paths"}
	if params.SeverityMapNames != "" && params.SeverityMapNames == params.IntensityMapNames {
		p.errorf("severity and intensity maps share the template %q", params.SeverityMapNames)
	}
	for _, tmpl := range []string{params.SeverityMapNames, params.IntensityMapNames} {
		if tmpl != "" && filepath.Clean(paramfile.MapName(tmpl, 0)) == filepath.Clean(params.LogFile) {
			p.errorf("map template %q collides with the log file", tmpl)
		}
	}
	return p
}

// ── Phase 3: Event log ──

func validateEventLog(params *domain.Parameters, grid *landscape.Grid, outputDir string) *phase {
	p := &phase{name: "Phase 3: Event log"}
	if outputDir == "" {
		p.skipped = true
		return p
	}
	path := resolve(outputDir, params.LogFile)
	f, err := os.Open(path)
	if err != nil {
		p.errorf("open %s: %v", path, err)
		return p
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		p.errorf("read %s: %v", path, err)
		return p
	}
	if len(all) == 0 || !slices.Equal(all[0], csvlog.Header) {
		p.errorf("header does not match %v", csvlog.Header)
		return p
	}

	rows, cols := grid.Dimensions()
	prevTime := 0
	for i, rec := range all[1:] {
		checkLogRow(p, i+2, rec, rows, cols, &prevTime)
	}
	return p
}

func checkLogRow(p *phase, line int, rec []string, rows, cols int, prevTime *int) {
	ints := map[string]int{}
	floats := map[string]float64{}
	for i, name := range csvlog.Header {
		switch name {
		case "Type":
			if t := domain.EventType(rec[i]); t != domain.Tornado && t != domain.Derecho {
				p.errorf("line %d: unknown event type %q", line, rec[i])
			}
		case "Time", "InitRow", "InitColumn", "Direction", "TotalSites", "DamagedSites", "CohortsKilled":
			v, err := strconv.Atoi(rec[i])
			if err != nil {
				p.errorf("line %d: %s %q is not an integer", line, name, rec[i])
			}
			ints[name] = v
		default:
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				p.errorf("line %d: %s %q is not a number", line, name, rec[i])
			}
			floats[name] = v
		}
	}

	if ints["Time"] < *prevTime {
		p.errorf("line %d: time %d precedes %d", line, ints["Time"], *prevTime)
	}
	*prevTime = ints["Time"]
	if ints["InitRow"] < 0 || ints["InitRow"] >= rows || ints["InitColumn"] < 0 || ints["InitColumn"] >= cols {
		p.errorf("line %d: initiation cell (%d, %d) is off the grid", line, ints["InitRow"], ints["InitColumn"])
	}
	if d := ints["Direction"]; d < 0 || d > 7 {
		p.errorf("line %d: direction %d outside 0..7", line, d)
	}
	if ints["DamagedSites"] > ints["TotalSites"] {
		p.errorf("line %d: %d damaged sites exceed %d total", line, ints["DamagedSites"], ints["TotalSites"])
	}
	if floats["DamagedArea"] > floats["TotalArea"] {
		p.errorf("line %d: damaged area exceeds total area", line)
	}
	if ms := floats["MeanSeverity"]; ms < 0 || ms > domain.MaxSeverity {
		p.errorf("line %d: mean severity %v outside 0..%d", line, ms, domain.MaxSeverity)
	}
	if v := floats["Intensity"]; v <= 0 || v > 1 {
		p.errorf("line %d: intensity %v outside (0, 1]", line, v)
	}
}

// ── Phase 4: Maps ──

func validateMaps(params *domain.Parameters, grid *landscape.Grid, outputDir string) *phase {
	p := &phase{name: "Phase 4: Severity and intensity maps"}
	if outputDir == "" || (params.SeverityMapNames == "" && params.IntensityMapNames == "") {
		p.skipped = true
		return p
	}
	checkMaps(p, grid, resolve(outputDir, params.SeverityMapNames), int64(domain.MaxSeverity)+1)
	checkMaps(p, grid, resolve(outputDir, params.IntensityMapNames), 100)
	return p
}

func checkMaps(p *phase, grid *landscape.Grid, template string, maxValue int64) {
	if template == "" {
		return
	}
	files, err := filepath.Glob(strings.ReplaceAll(template, "{timestep}", "*"))
	if err != nil || len(files) == 0 {
		p.errorf("no maps match %s", template)
		return
	}
	rows, cols := grid.Dimensions()
	for _, path := range files {
		g, err := raster.ReadFile(path)
		if err != nil {
			p.errorf("%v", err)
			continue
		}
		if g.Rows != rows || g.Cols != cols {
			p.errorf("%s: %dx%d grid, landscape is %dx%d", path, g.Rows, g.Cols, rows, cols)
			continue
		}
		for i, v := range g.Values {
			if !grid.IsActive(i) && v != 0 {
				p.errorf("%s: inactive cell %d has value %d", path, i, v)
			}
			if v < 0 || v > maxValue {
				p.errorf("%s: cell %d value %d outside 0..%d", path, i, v, maxValue)
			}
		}
	}
}

// ── Phase 5: SQLite archive ──

// validateArchive compares the archive with the event log, timestep by
// timestep, on count, initiation cell and type.
func validateArchive(ctx context.Context, params *domain.Parameters, outputDir, archivePath string) *phase {
	p := &phase{name: "Phase 5: SQLite archive"}
	if outputDir == "" || archivePath == "" {
		p.skipped = true
		return p
	}
	if _, err := os.Stat(archivePath); err != nil {
		p.errorf("%v", err)
		return p
	}
	logged, err := readLogEvents(resolve(outputDir, params.LogFile))
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	store, err := sqlite.Open(archivePath)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	defer store.Close()

	counts, err := store.CountByType(ctx)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	archived := 0
	for _, n := range counts {
		archived += n
	}
	total := 0
	for _, keys := range logged.byTime {
		total += len(keys)
	}
	if archived != total {
		p.errorf("archive holds %d events, log holds %d", archived, total)
	}

	for _, t := range logged.times {
		records, err := store.EventsAt(ctx, t)
		if err != nil {
			p.errorf("time %d: %v", t, err)
			continue
		}
		want := logged.byTime[t]
		if len(records) != len(want) {
			p.errorf("time %d: archive holds %d events, log holds %d", t, len(records), len(want))
			continue
		}
		for i := range records {
			if got := eventKey(records[i].InitRow, records[i].InitColumn, string(records[i].Type)); got != want[i] {
				p.errorf("time %d event %d: archive has %s, log has %s", t, i+1, got, want[i])
			}
		}
	}
	return p
}

type logEvents struct {
	times  []int
	byTime map[int][]string
}

func readLogEvents(path string) (logEvents, error) {
	f, err := os.Open(path)
	if err != nil {
		return logEvents{}, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return logEvents{}, fmt.Errorf("read %s: %w", path, err)
	}
	out := logEvents{byTime: map[int][]string{}}
	for i, rec := range all {
		if i == 0 {
			continue
		}
		t, err := strconv.Atoi(rec[0])
		if err != nil {
			return logEvents{}, fmt.Errorf("%s line %d: time %q is not an integer", path, i+1, rec[0])
		}
		if _, seen := out.byTime[t]; !seen {
			out.times = append(out.times, t)
		}
		out.byTime[t] = append(out.byTime[t], eventKey(atoi(rec[1]), atoi(rec[2]), rec[3]))
	}
	return out, nil
}

func eventKey(row, col int, eventType string) string {
	return fmt.Sprintf("%s at (%d, %d)", eventType, row, col)
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
