// Package paramfile reads the simulation's parameter file.
//
// The file is a sequence of keyword lines and tables. Text after ">>" is a
// comment; blank lines are ignored. Values may be double-quoted.
//
//	LandisData  "Linear Wind"
//	Timestep    10
//	...
//	WindSeverities
//	>> Sev  Age range      Mortality
//	   5    0%  to 20%     0.75
//	   ...
//	LogFile  linearwind/log.csv
//
// Every problem is reported as an *Error carrying the offending line.
package paramfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/storm-linearwind/internal/domain"
)

// LandisDataValue is the required value of the LandisData line.
const LandisDataValue = "Linear Wind"

const (
	kwTornadoProp        = "TornadoProp"
	kwPropIntensityVar   = "PropIntensityVar"
	kwEcoregionModifiers = "EcoregionModifiers"
	kwWindSeverities     = "WindSeverities"
	kwIntensityMapNames  = "IntensityMapNames"
	kwSeverityMapNames   = "SeverityMapNames"
	kwLogFile            = "LogFile"

	timestepVar = "{timestep}"
)

// Ecoregions resolves the ecoregion names used in the modifier table.
type Ecoregions interface {
	EcoregionByName(name string) (index int, ok bool)
	EcoregionCount() int
}

// Error reports a problem on one line of the parameter file. Line is 0 when
// the input ended early.
type Error struct {
	Line  int
	Value string
	Msg   string
}

func (e *Error) Error() string {
	switch {
	case e.Line == 0:
		return e.Msg
	case e.Value == "":
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	default:
		return fmt.Sprintf("line %d: %q: %s", e.Line, e.Value, e.Msg)
	}
}

type line struct {
	num    int
	fields []string
}

func (l line) name() string { return l.fields[0] }

type parser struct {
	lines []line
	pos   int
	ecos  Ecoregions
}

// Load reads and validates a parameter file.
func Load(path string, ecos Ecoregions) (*domain.Parameters, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parameter file: %w", err)
	}
	defer f.Close()

	params, err := Parse(f, ecos)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return params, nil
}

// Parse reads parameters from r and validates them.
func Parse(r io.Reader, ecos Ecoregions) (*domain.Parameters, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	p := &parser{lines: lines, ecos: ecos}
	params, err := p.parse()
	if err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	return params, nil
}

func readLines(r io.Reader) ([]line, error) {
	var lines []line
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		text := sc.Text()
		if i := strings.Index(text, ">>"); i >= 0 {
			text = text[:i]
		}
		fields, err := splitFields(text)
		if err != nil {
			return nil, &Error{Line: n, Value: strings.TrimSpace(text), Msg: err.Error()}
		}
		if len(fields) > 0 {
			lines = append(lines, line{num: n, fields: fields})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read parameter file: %w", err)
	}
	return lines, nil
}

// splitFields splits on whitespace, keeping double-quoted runs together.
func splitFields(s string) ([]string, error) {
	var fields []string
	for {
		s = strings.TrimLeft(s, " \t\r")
		if s == "" {
			return fields, nil
		}
		if s[0] == '"' {
			end := strings.IndexByte(s[1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("missing closing quote")
			}
			fields = append(fields, s[1:end+1])
			s = s[end+2:]
			continue
		}
		end := strings.IndexAny(s, " \t\r")
		if end < 0 {
			end = len(s)
		}
		fields = append(fields, s[:end])
		s = s[end:]
	}
}

func (p *parser) atEnd() bool { return p.pos >= len(p.lines) }

func (p *parser) current() line { return p.lines[p.pos] }

func (p *parser) currentName() string {
	if p.atEnd() {
		return ""
	}
	return p.current().name()
}

func (p *parser) next() { p.pos++ }

func (p *parser) parse() (*domain.Parameters, error) {
	params := &domain.Parameters{}
	if p.ecos != nil {
		params.EcoModifiers = make([]float64, p.ecos.EcoregionCount())
	}

	landisData, ln, err := p.readVar("LandisData")
	if err != nil {
		return nil, err
	}
	if landisData != LandisDataValue {
		return nil, &Error{Line: ln, Value: landisData, Msg: fmt.Sprintf("LandisData must be %q", LandisDataValue)}
	}

	if params.Timestep, err = p.readInt("Timestep", atLeast(0)); err != nil {
		return nil, err
	}
	if params.NumEventsMean, err = p.readFloat("NumEventsMean", atLeast(0)); err != nil {
		return nil, err
	}
	if params.NumEventsStDev, err = p.readFloat("NumEventsStDev", nil); err != nil {
		return nil, err
	}
	if params.Tornado, err = p.readEventParameters("Tornado", kwTornadoProp); err != nil {
		return nil, err
	}
	if params.TornadoProp, err = p.readFloat(kwTornadoProp, between(0, 1)); err != nil {
		return nil, err
	}
	if params.Derecho, err = p.readEventParameters("Derecho", kwPropIntensityVar); err != nil {
		return nil, err
	}
	if params.PropIntensityVar, err = p.readFloat(kwPropIntensityVar, between(0, 1)); err != nil {
		return nil, err
	}

	dir, err := p.readPercentTable("WindDirectionTable", 4, kwEcoregionModifiers, kwWindSeverities)
	if err != nil {
		return nil, err
	}
	copy(params.DirectionBreakpoints[:], dir)

	if p.currentName() == kwEcoregionModifiers {
		if err := p.readEcoregionModifiers(params); err != nil {
			return nil, err
		}
	}

	if params.Severities, err = p.readSeverities(); err != nil {
		return nil, err
	}

	if err := p.readMapNames(params); err != nil {
		return nil, err
	}

	logFile, ln, err := p.readVar(kwLogFile)
	if err != nil {
		return nil, err
	}
	if logFile == "" {
		return nil, &Error{Line: ln, Msg: "LogFile must be a file path"}
	}
	params.LogFile = logFile

	if !p.atEnd() {
		l := p.current()
		return nil, &Error{Line: l.num, Value: l.name(), Msg: "unexpected data after the LogFile parameter"}
	}
	return params, nil
}

func (p *parser) readEventParameters(prefix, tableEnd string) (domain.EventParameters, error) {
	var ep domain.EventParameters
	var err error
	if ep.LengthLambda, err = p.readFloat(prefix+"LengthLambda", atLeast(0)); err != nil {
		return ep, err
	}
	if ep.LengthAlpha, err = p.readFloat(prefix+"LengthAlpha", above(0)); err != nil {
		return ep, err
	}
	if ep.Width, err = p.readFloat(prefix+"Width", atLeast(0)); err != nil {
		return ep, err
	}
	bps, err := p.readPercentTable(prefix+"IntensityTable", 5, tableEnd)
	if err != nil {
		return ep, err
	}
	copy(ep.IntensityBreakpoints[:], bps)
	return ep, nil
}

// readVar reads a "Name value" line and returns the value and line number.
func (p *parser) readVar(name string) (string, int, error) {
	if p.atEnd() {
		return "", 0, &Error{Msg: fmt.Sprintf("found end of input; expected %q", name)}
	}
	l := p.current()
	if l.name() != name {
		return "", l.num, &Error{Line: l.num, Value: l.name(), Msg: fmt.Sprintf("expected %q", name)}
	}
	switch len(l.fields) {
	case 1:
		return "", l.num, &Error{Line: l.num, Value: name, Msg: "missing value"}
	case 2:
	default:
		return "", l.num, &Error{Line: l.num, Value: l.fields[2], Msg: fmt.Sprintf("extra data after the %s value", name)}
	}
	p.next()
	return l.fields[1], l.num, nil
}

// readName consumes a line holding only name.
func (p *parser) readName(name string) error {
	if p.atEnd() {
		return &Error{Msg: fmt.Sprintf("found end of input; expected %q", name)}
	}
	l := p.current()
	if l.name() != name {
		return &Error{Line: l.num, Value: l.name(), Msg: fmt.Sprintf("expected %q", name)}
	}
	if len(l.fields) > 1 {
		return &Error{Line: l.num, Value: l.fields[1], Msg: fmt.Sprintf("extra data after %s", name)}
	}
	p.next()
	return nil
}

type check func(float64) string

func atLeast(lo float64) check {
	return func(v float64) string {
		if v < lo {
			return fmt.Sprintf("value must be >= %v", lo)
		}
		return ""
	}
}

func above(lo float64) check {
	return func(v float64) string {
		if v <= lo {
			return fmt.Sprintf("value must be > %v", lo)
		}
		return ""
	}
}

func between(lo, hi float64) check {
	return func(v float64) string {
		if v < lo || v > hi {
			return fmt.Sprintf("value must be between %v and %v", lo, hi)
		}
		return ""
	}
}

func (p *parser) readFloat(name string, c check) (float64, error) {
	raw, ln, err := p.readVar(name)
	if err != nil {
		return 0, err
	}
	return parseFloat(raw, ln, c)
}

func (p *parser) readInt(name string, c check) (int, error) {
	raw, ln, err := p.readVar(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &Error{Line: ln, Value: raw, Msg: "not a valid integer"}
	}
	if c != nil {
		if msg := c(float64(v)); msg != "" {
			return 0, &Error{Line: ln, Value: raw, Msg: msg}
		}
	}
	return v, nil
}

func parseFloat(raw string, ln int, c check) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &Error{Line: ln, Value: raw, Msg: "not a valid number"}
	}
	if c != nil {
		if msg := c(v); msg != "" {
			return 0, &Error{Line: ln, Value: raw, Msg: msg}
		}
	}
	return v, nil
}

// parsePercent accepts "20%" or "20" and returns the fraction 0.2.
func parsePercent(raw string, ln int) (float64, error) {
	v, err := parseFloat(strings.TrimSuffix(raw, "%"), ln, between(0, 100))
	if err != nil {
		var pe *Error
		if errors.As(err, &pe) {
			pe.Value = raw
		}
		return 0, err
	}
	return v / 100, nil
}

// readPercentTable reads rows of one percentage each until a line named by
// one of ends, and returns the cumulative breakpoints.
func (p *parser) readPercentTable(name string, rows int, ends ...string) ([]float64, error) {
	if err := p.readName(name); err != nil {
		return nil, err
	}
	var cumulative []float64
	sum := 0.0
	lastLine, lastValue := 0, ""
	for !p.atEnd() && !slices.Contains(ends, p.currentName()) {
		l := p.current()
		v, err := parseFloat(l.fields[0], l.num, between(0, 100))
		if err != nil {
			return nil, err
		}
		if len(l.fields) > 1 {
			return nil, &Error{Line: l.num, Value: l.fields[1], Msg: fmt.Sprintf("extra data after the %s percentage", name)}
		}
		sum += v
		cumulative = append(cumulative, sum)
		lastLine, lastValue = l.num, l.fields[0]
		p.next()
	}
	if len(cumulative) != rows {
		return nil, &Error{Line: lastLine, Value: lastValue, Msg: fmt.Sprintf("%s must have %d rows, found %d", name, rows, len(cumulative))}
	}
	if math.Abs(sum-100) > 1e-9 {
		return nil, &Error{Line: lastLine, Value: lastValue, Msg: fmt.Sprintf("%s percentages do not sum to 100", name)}
	}
	cumulative[rows-1] = 100
	return cumulative, nil
}

func (p *parser) readEcoregionModifiers(params *domain.Parameters) error {
	if err := p.readName(kwEcoregionModifiers); err != nil {
		return err
	}
	seen := map[string]int{}
	for !p.atEnd() && p.currentName() != kwWindSeverities {
		l := p.current()
		name := l.name()
		if p.ecos == nil {
			return &Error{Line: l.num, Value: name, Msg: "no ecoregions are defined"}
		}
		idx, ok := p.ecos.EcoregionByName(name)
		if !ok {
			return &Error{Line: l.num, Value: name, Msg: fmt.Sprintf("%s is not an ecoregion name", name)}
		}
		if prev, dup := seen[name]; dup {
			return &Error{Line: l.num, Value: name, Msg: fmt.Sprintf("the ecoregion %s was previously used on line %d", name, prev)}
		}
		seen[name] = l.num
		if len(l.fields) < 2 {
			return &Error{Line: l.num, Value: name, Msg: "missing ecoregion modifier"}
		}
		if len(l.fields) > 2 {
			return &Error{Line: l.num, Value: l.fields[2], Msg: "extra data after the ecoregion modifier column"}
		}
		v, err := parseFloat(l.fields[1], l.num, nil)
		if err != nil {
			return err
		}
		params.EcoModifiers[idx] = v
		p.next()
	}
	return nil
}

// readSeverities reads "N min% to max% threshold" rows. Numbers decrease by
// one down to 1 and age ranges tile 0%..100%.
func (p *parser) readSeverities() (domain.SeverityTable, error) {
	if err := p.readName(kwWindSeverities); err != nil {
		return nil, err
	}
	var table domain.SeverityTable
	prevNumber := domain.MaxSeverity + 1
	prevMaxAge := 0.0
	for !p.atEnd() && prevNumber != 1 && !slices.Contains([]string{kwSeverityMapNames, kwIntensityMapNames, kwLogFile}, p.currentName()) {
		l := p.current()
		if len(l.fields) < 5 {
			return nil, &Error{Line: l.num, Value: strings.Join(l.fields, " "), Msg: "expected: number  min%  to  max%  threshold"}
		}
		n, err := strconv.Atoi(l.fields[0])
		if err != nil || n < 1 || n > 255 {
			return nil, &Error{Line: l.num, Value: l.fields[0], Msg: "severity number must be a byte value 1..255"}
		}
		if len(table) == 0 {
			if n > domain.MaxSeverity {
				return nil, &Error{Line: l.num, Value: l.fields[0], Msg: fmt.Sprintf("severity numbers cannot exceed %d", domain.MaxSeverity)}
			}
		} else if n != prevNumber-1 {
			return nil, &Error{Line: l.num, Value: l.fields[0], Msg: fmt.Sprintf("expected the severity number %d", prevNumber-1)}
		}

		minAge, err := parsePercent(l.fields[1], l.num)
		if err != nil {
			return nil, err
		}
		if len(table) == 0 && minAge != 0 {
			return nil, &Error{Line: l.num, Value: l.fields[1], Msg: "it must be 0% for the first severity"}
		}
		if len(table) > 0 && minAge != prevMaxAge {
			return nil, &Error{Line: l.num, Value: l.fields[1],
				Msg: fmt.Sprintf("it must equal the maximum age (%v%%) of the preceding severity", prevMaxAge*100)}
		}

		if l.fields[2] != "to" {
			return nil, &Error{Line: l.num, Value: l.fields[2],
				Msg: fmt.Sprintf("expected \"to\" after the minimum age (%s)", l.fields[1])}
		}

		maxAge, err := parsePercent(l.fields[3], l.num)
		if err != nil {
			return nil, err
		}
		if maxAge < minAge {
			return nil, &Error{Line: l.num, Value: l.fields[3], Msg: "maximum age is below the minimum age"}
		}
		if n == 1 && maxAge != 1 {
			return nil, &Error{Line: l.num, Value: l.fields[3], Msg: "it must be 100% for the last severity"}
		}

		threshold, err := parseFloat(l.fields[4], l.num, between(0, 1))
		if err != nil {
			return nil, err
		}
		if len(l.fields) > 5 {
			return nil, &Error{Line: l.num, Value: l.fields[5], Msg: "extra data after the mortality threshold column"}
		}

		table = append(table, domain.SeverityTier{
			Number:             uint8(n),
			MinAgeFrac:         minAge,
			MaxAgeFrac:         maxAge,
			MortalityThreshold: threshold,
		})
		prevNumber, prevMaxAge = n, maxAge
		p.next()
	}
	if len(table) == 0 {
		return nil, &Error{Line: p.lineNum(), Msg: "no severities defined"}
	}
	if prevNumber != 1 {
		return nil, &Error{Line: p.lineNum(), Msg: fmt.Sprintf("expected wind severity %d", prevNumber-1)}
	}
	return table, nil
}

// readMapNames reads the optional map name templates in either order.
func (p *parser) readMapNames(params *domain.Parameters) error {
	for {
		var dst *string
		switch p.currentName() {
		case kwIntensityMapNames:
			dst = &params.IntensityMapNames
		case kwSeverityMapNames:
			dst = &params.SeverityMapNames
		default:
			return nil
		}
		name := p.currentName()
		if *dst != "" {
			l := p.current()
			return &Error{Line: l.num, Value: name, Msg: "parameter is given more than once"}
		}
		tmpl, ln, err := p.readVar(name)
		if err != nil {
			return err
		}
		if !strings.Contains(tmpl, timestepVar) {
			return &Error{Line: ln, Value: tmpl, Msg: fmt.Sprintf("template must contain the variable %s", timestepVar)}
		}
		*dst = tmpl
	}
}

// lineNum is the current line number, or 0 at end of input.
func (p *parser) lineNum() int {
	if p.atEnd() {
		return 0
	}
	return p.current().num
}

// MapName expands a map name template for a timestep.
func MapName(template string, timestep int) string {
	return strings.ReplaceAll(template, timestepVar, strconv.Itoa(timestep))
}
