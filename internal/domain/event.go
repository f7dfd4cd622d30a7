package domain

import "time"

// EventType distinguishes the two kinds of linear wind event.
type EventType string

const (
	Tornado EventType = "Tornado"
	Derecho EventType = "Derecho"
)

// Cell locates one landscape cell. Index is the cell's row-major position in
// the full grid and keys every per-cell array in [SiteState].
type Cell struct {
	Row   int
	Col   int
	Index int
}

// DisturbanceEvent is created when a cell initiates an event, filled in by the
// spread pass and discarded once logged.
type DisturbanceEvent struct {
	Time      int
	Start     Cell
	EndRow    int
	EndCol    int
	Length    float64 // km
	Width     float64 // km, full footprint width
	Type      EventType
	Direction int     // compass index as sampled, before the grid remap
	Intensity float64 // base intensity on the event axis

	SitesInEvent  int
	SitesDamaged  int
	CohortsKilled int
	MeanSeverity  float64
	AreaHectares  float64
	DamagedArea   float64 // hectares
}

// EventRecord is the flat, serializable row emitted for each event.
type EventRecord struct {
	Time          int       `json:"time"`
	InitRow       int       `json:"init_row"`
	InitColumn    int       `json:"init_column"`
	Type          EventType `json:"type"`
	Length        float64   `json:"length_km"`
	Width         float64   `json:"width_km"`
	Direction     int       `json:"direction"`
	Intensity     float64   `json:"intensity"`
	TotalSites    int       `json:"total_sites"`
	DamagedSites  int       `json:"damaged_sites"`
	TotalArea     float64   `json:"total_area_ha"`
	DamagedArea   float64   `json:"damaged_area_ha"`
	CohortsKilled int       `json:"cohorts_killed"`
	MeanSeverity  float64   `json:"mean_severity"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// NewEventRecord flattens an event into its log row.
func NewEventRecord(ev *DisturbanceEvent) EventRecord {
	return EventRecord{
		Time:          ev.Time,
		InitRow:       ev.Start.Row,
		InitColumn:    ev.Start.Col,
		Type:          ev.Type,
		Length:        ev.Length,
		Width:         ev.Width,
		Direction:     ev.Direction,
		Intensity:     ev.Intensity,
		TotalSites:    ev.SitesInEvent,
		DamagedSites:  ev.SitesDamaged,
		TotalArea:     ev.AreaHectares,
		DamagedArea:   ev.DamagedArea,
		CohortsKilled: ev.CohortsKilled,
		MeanSeverity:  ev.MeanSeverity,
		RecordedAt:    clock.Now().UTC(),
	}
}

// NewEventRecords flattens a timestep's events in initiation order.
func NewEventRecords(events []*DisturbanceEvent) []EventRecord {
	out := make([]EventRecord, 0, len(events))
	for _, ev := range events {
		out = append(out, NewEventRecord(ev))
	}
	return out
}
