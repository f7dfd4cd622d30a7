package raster

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Grid is a decoded ESRI ASCII grid.
type Grid struct {
	Rows     int
	Cols     int
	CellSize float64
	Values   []int64
}

// ReadFile decodes the grid stored at path.
func ReadFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Decode reads an integer-valued ESRI ASCII grid.
func Decode(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	g := &Grid{}
	header := map[string]string{}
	for len(header) < 5 && sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed header line %q", sc.Text())
		}
		header[strings.ToLower(fields[0])] = fields[1]
	}
	var err error
	if g.Cols, err = strconv.Atoi(header["ncols"]); err != nil {
		return nil, fmt.Errorf("ncols: %w", err)
	}
	if g.Rows, err = strconv.Atoi(header["nrows"]); err != nil {
		return nil, fmt.Errorf("nrows: %w", err)
	}
	if g.CellSize, err = strconv.ParseFloat(header["cellsize"], 64); err != nil {
		return nil, fmt.Errorf("cellsize: %w", err)
	}

	g.Values = make([]int64, 0, g.Rows*g.Cols)
	for row := 0; sc.Scan(); row++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != g.Cols {
			return nil, fmt.Errorf("data row %d: has %d values, want %d", row+1, len(fields), g.Cols)
		}
		for _, f := range fields {
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("data row %d: %w", row+1, err)
			}
			g.Values = append(g.Values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(g.Values) != g.Rows*g.Cols {
		return nil, fmt.Errorf("got %d values, want %d", len(g.Values), g.Rows*g.Cols)
	}
	return g, nil
}
