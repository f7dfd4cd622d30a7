package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-linearwind/internal/adapter/csvlog"
	"github.com/couchcryptid/storm-linearwind/internal/adapter/sqlite"
	"github.com/couchcryptid/storm-linearwind/internal/domain"
)

var archiveRun = map[int][]domain.EventRecord{
	10: {
		{Time: 10, InitRow: 1, InitColumn: 2, Type: domain.Tornado, Intensity: 0.6},
		{Time: 10, InitRow: 4, InitColumn: 0, Type: domain.Derecho, Intensity: 0.2},
	},
	20: {
		{Time: 20, InitRow: 3, InitColumn: 3, Type: domain.Tornado, Intensity: 0.8},
	},
}

// writeRun writes the event log into dir and the given per-time records
// into an archive, returning the archive path.
func writeRun(t *testing.T, dir string, archived map[int][]domain.EventRecord) string {
	t.Helper()
	ctx := context.Background()

	log, err := csvlog.Create(filepath.Join(dir, "events.csv"))
	require.NoError(t, err)
	for _, ts := range []int{10, 20} {
		require.NoError(t, log.LoadEvents(ctx, ts, archiveRun[ts]))
	}
	require.NoError(t, log.Close())

	path := filepath.Join(dir, "events.db")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	for _, ts := range []int{10, 20} {
		records := archived[ts]
		for i := range records {
			records[i].RecordedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		}
		require.NoError(t, store.LoadEvents(ctx, ts, records))
	}
	require.NoError(t, store.Close())
	return path
}

func TestValidateArchive_Matches(t *testing.T) {
	dir := t.TempDir()
	path := writeRun(t, dir, archiveRun)

	p := validateArchive(context.Background(), &domain.Parameters{LogFile: "events.csv"}, dir, path)
	assert.False(t, p.skipped)
	assert.Empty(t, p.errors)
}

func TestValidateArchive_ReportsMismatches(t *testing.T) {
	dir := t.TempDir()
	path := writeRun(t, dir, map[int][]domain.EventRecord{
		10: {
			{Time: 10, InitRow: 1, InitColumn: 2, Type: domain.Derecho},
			{Time: 10, InitRow: 4, InitColumn: 0, Type: domain.Derecho},
		},
	})

	p := validateArchive(context.Background(), &domain.Parameters{LogFile: "events.csv"}, dir, path)
	assert.Equal(t, []string{
		"archive holds 2 events, log holds 3",
		"time 10 event 1: archive has Derecho at (1, 2), log has Tornado at (1, 2)",
		"time 20: archive holds 0 events, log holds 1",
	}, p.errors)
}

func TestValidateArchive_Skipped(t *testing.T) {
	params := &domain.Parameters{LogFile: "events.csv"}
	assert.True(t, validateArchive(context.Background(), params, "out", "").skipped)
	assert.True(t, validateArchive(context.Background(), params, "", "events.db").skipped)
}

func TestValidateArchive_MissingArchive(t *testing.T) {
	dir := t.TempDir()
	p := validateArchive(context.Background(), &domain.Parameters{LogFile: "events.csv"}, dir, filepath.Join(dir, "none.db"))
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "none.db")
}
