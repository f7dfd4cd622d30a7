// Package sqlite persists event records in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/storm-linearwind/internal/domain"
)

//go:embed schema.sql
var schema string

// Store appends event records to the wind_events table.
// It implements pipeline.EventLoader.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LoadEvents inserts the records of one timestep in a single transaction.
func (s *Store) LoadEvents(ctx context.Context, t int, records []domain.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO wind_events (
		time, init_row, init_column, event_type, length_km, width_km, direction, intensity,
		total_sites, damaged_sites, total_area_ha, damaged_area_ha, cohorts_killed, mean_severity,
		recorded_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Time, r.InitRow, r.InitColumn, string(r.Type), r.Length, r.Width, r.Direction, r.Intensity,
			r.TotalSites, r.DamagedSites, r.TotalArea, r.DamagedArea, r.CohortsKilled, r.MeanSeverity,
			r.RecordedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("insert event at time %d: %w", t, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit events for time %d: %w", t, err)
	}
	return nil
}

// EventsAt returns the records stored for timestep t in insertion order.
func (s *Store) EventsAt(ctx context.Context, t int) ([]domain.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		time, init_row, init_column, event_type, length_km, width_km, direction, intensity,
		total_sites, damaged_sites, total_area_ha, damaged_area_ha, cohorts_killed, mean_severity,
		recorded_at
	FROM wind_events WHERE time = ? ORDER BY id`, t)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []domain.EventRecord
	for rows.Next() {
		var (
			r          domain.EventRecord
			eventType  string
			recordedAt int64
		)
		if err := rows.Scan(
			&r.Time, &r.InitRow, &r.InitColumn, &eventType, &r.Length, &r.Width, &r.Direction, &r.Intensity,
			&r.TotalSites, &r.DamagedSites, &r.TotalArea, &r.DamagedArea, &r.CohortsKilled, &r.MeanSeverity,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		r.Type = domain.EventType(eventType)
		r.RecordedAt = time.UnixMilli(recordedAt).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountByType reports how many events of each type have been stored.
func (s *Store) CountByType(ctx context.Context) (map[domain.EventType]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_type, COUNT(*) FROM wind_events GROUP BY event_type`)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := map[domain.EventType]int{}
	for rows.Next() {
		var (
			eventType string
			n         int
		)
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[domain.EventType(eventType)] = n
	}
	return counts, rows.Err()
}
