// Package raster writes the per-timestep severity and intensity maps as ESRI
// ASCII grids.
package raster

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/storm-linearwind/internal/domain"
	"github.com/couchcryptid/storm-linearwind/internal/paramfile"
)

// Writer writes both maps of a timestep. An empty template disables that
// map. It implements pipeline.MapWriter.
type Writer struct {
	dir               string
	severityTemplate  string
	intensityTemplate string
	cellSize          float64
}

// NewWriter returns a Writer that resolves relative map paths against dir.
func NewWriter(dir, severityTemplate, intensityTemplate string, cellSize float64) *Writer {
	return &Writer{
		dir:               dir,
		severityTemplate:  severityTemplate,
		intensityTemplate: intensityTemplate,
		cellSize:          cellSize,
	}
}

// WriteMaps writes the severity and intensity rasters for timestep t.
func (w *Writer) WriteMaps(_ context.Context, t int, severity domain.Raster[uint8], intensity domain.Raster[int32]) error {
	if w.severityTemplate != "" {
		if err := writeFile(w.path(w.severityTemplate, t), severity, w.cellSize); err != nil {
			return fmt.Errorf("severity map: %w", err)
		}
	}
	if w.intensityTemplate != "" {
		if err := writeFile(w.path(w.intensityTemplate, t), intensity, w.cellSize); err != nil {
			return fmt.Errorf("intensity map: %w", err)
		}
	}
	return nil
}

func (w *Writer) path(template string, t int) string {
	p := paramfile.MapName(template, t)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(w.dir, p)
}

func writeFile[T uint8 | int32](path string, r domain.Raster[T], cellSize float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, r, cellSize); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Encode writes r as an ESRI ASCII grid with its origin at (0, 0). The first
// data row is the grid's row 0.
func Encode[T uint8 | int32](w io.Writer, r domain.Raster[T], cellSize float64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\nnrows %d\nxllcorner 0\nyllcorner 0\ncellsize %s\n",
		r.Cols, r.Rows, strconv.FormatFloat(cellSize, 'g', -1, 64))

	buf := make([]byte, 0, 16)
	for row := range r.Rows {
		for col := range r.Cols {
			if col > 0 {
				bw.WriteByte(' ')
			}
			buf = strconv.AppendInt(buf[:0], int64(r.Values[row*r.Cols+col]), 10)
			bw.Write(buf)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
