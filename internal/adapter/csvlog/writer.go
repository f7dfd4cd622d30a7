// Package csvlog writes the per-event disturbance log as CSV.
package csvlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/storm-linearwind/internal/domain"
)

// Header is the first row of every event log.
var Header = []string{
	"Time", "InitRow", "InitColumn", "Type", "Length", "Width", "Direction", "Intensity",
	"TotalSites", "DamagedSites", "TotalArea", "DamagedArea", "CohortsKilled", "MeanSeverity",
}

// Writer appends one row per event. It implements pipeline.EventLoader.
type Writer struct {
	closer io.Closer
	csv    *csv.Writer
}

// Create opens path for writing, creating parent directories, and writes
// the header row.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create event log: %w", err)
	}
	w, err := NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewWriter writes the header to w and returns a Writer over it.
func NewWriter(w io.Writer) (*Writer, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return nil, fmt.Errorf("write log header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("write log header: %w", err)
	}
	return &Writer{csv: cw}, nil
}

// LoadEvents writes the rows of one timestep and flushes them.
func (w *Writer) LoadEvents(_ context.Context, _ int, records []domain.EventRecord) error {
	for i := range records {
		if err := w.csv.Write(row(&records[i])); err != nil {
			return fmt.Errorf("write event row: %w", err)
		}
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("flush event log: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	w.csv.Flush()
	err := w.csv.Error()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func row(r *domain.EventRecord) []string {
	return []string{
		strconv.Itoa(r.Time),
		strconv.Itoa(r.InitRow),
		strconv.Itoa(r.InitColumn),
		string(r.Type),
		formatFloat(r.Length),
		formatFloat(r.Width),
		strconv.Itoa(r.Direction),
		formatFloat(r.Intensity),
		strconv.Itoa(r.TotalSites),
		strconv.Itoa(r.DamagedSites),
		formatFloat(r.TotalArea),
		formatFloat(r.DamagedArea),
		strconv.Itoa(r.CohortsKilled),
		strconv.FormatFloat(r.MeanSeverity, 'f', 2, 64),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
