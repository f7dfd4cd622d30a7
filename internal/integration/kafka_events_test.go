//go:build integration

package integration_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-linearwind/internal/adapter/csvlog"
	"github.com/couchcryptid/storm-linearwind/internal/adapter/kafka"
	"github.com/couchcryptid/storm-linearwind/internal/adapter/sqlite"
	"github.com/couchcryptid/storm-linearwind/internal/config"
	"github.com/couchcryptid/storm-linearwind/internal/domain"
	"github.com/couchcryptid/storm-linearwind/internal/landscape"
	"github.com/couchcryptid/storm-linearwind/internal/observability"
	"github.com/couchcryptid/storm-linearwind/internal/paramfile"
	"github.com/couchcryptid/storm-linearwind/internal/pipeline"
)

const testTopic = "test-wind-events"

// publishedEvent holds a deserialized message read from the event topic.
type publishedEvent struct {
	Record  domain.EventRecord
	Key     string
	Headers map[string]string
}

func readEvents(ctx context.Context, t *testing.T, broker string, n int) []publishedEvent {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	out := make([]publishedEvent, 0, n)
	for range n {
		readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		cancel()
		require.NoError(t, err, "read from event topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		var rec domain.EventRecord
		require.NoError(t, json.Unmarshal(msg.Value, &rec))
		out = append(out, publishedEvent{Record: rec, Key: string(msg.Key), Headers: headers})
	}
	return out
}

// TestKafkaWriter verifies that event records survive a round trip through Kafka.
func TestKafkaWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	writer := kafka.NewWriter(&config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	records := []domain.EventRecord{
		{Time: 10, InitRow: 4, InitColumn: 9, Type: domain.Tornado, Length: 2.5, Intensity: 0.8,
			TotalSites: 6, DamagedSites: 4, MeanSeverity: 3.5, RecordedAt: time.Now().UTC().Truncate(time.Second)},
		{Time: 10, InitRow: 0, InitColumn: 2, Type: domain.Derecho, Length: 90, Intensity: 0.4,
			RecordedAt: time.Now().UTC().Truncate(time.Second)},
	}
	require.NoError(t, writer.LoadEvents(ctx, 10, records))

	got := readEvents(ctx, t, broker, 2)
	assert.Equal(t, "4:9", got[0].Key)
	assert.Equal(t, "Tornado", got[0].Headers["event_type"])
	_, err := time.Parse(time.RFC3339, got[0].Headers["recorded_at"])
	require.NoError(t, err, "recorded_at should be valid RFC3339")
	assert.Equal(t, 4, got[0].Record.DamagedSites)
	assert.Equal(t, domain.Derecho, got[1].Record.Type)
}

// TestSimulationEndToEnd runs a seeded simulation with every event sink wired
// and checks they all saw the same events.
func TestSimulationEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)

	def := &landscape.Definition{
		CellLength: 100,
		Ecoregions: []landscape.EcoregionDef{
			{Name: "lake", Code: 0},
			{Name: "eco1", Code: 1, Active: true},
			{Name: "eco2", Code: 2, Active: true},
			{Name: "eco3", Code: 3, Active: true},
		},
		Species: []landscape.SpeciesDef{{Name: "acersacc", Longevity: 300}},
		Communities: map[string][]landscape.CommunityDef{
			"eco1": {{Species: "acersacc", Ages: []int{20, 90, 200, 280}}},
		},
	}
	for r := range 40 {
		row := make([]int, 40)
		for c := range row {
			if r > 5 || c > 5 {
				row[c] = 1
			}
		}
		def.Map = append(def.Map, row)
	}
	grid, err := def.Build()
	require.NoError(t, err)

	params, err := paramfile.Load("../paramfile/testdata/linear-wind.txt", grid)
	require.NoError(t, err)
	params.NumEventsMean = 4000
	params.NumEventsStDev = 100

	orch := domain.NewOrchestrator(params, grid, domain.NewRandomStream(2024), domain.WithLogger(discardLogger()))

	var logBuf bytes.Buffer
	eventLog, err := csvlog.NewWriter(&logBuf)
	require.NoError(t, err)

	writer := kafka.NewWriter(&config.Config{KafkaBrokers: []string{broker}, KafkaTopic: testTopic}, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	p := pipeline.New(orch, grid, pipeline.Schedule{Duration: 20, Timestep: params.Timestep},
		discardLogger(), observability.NewMetricsForTesting(),
		pipeline.WithSink(pipeline.Sink{Name: "log", Loader: eventLog, Required: true}),
		pipeline.WithSink(pipeline.Sink{Name: "kafka", Loader: writer, Required: true}),
		pipeline.WithSink(pipeline.Sink{Name: "sqlite", Loader: store, Required: true}),
	)
	require.NoError(t, p.Run(ctx))
	require.NoError(t, eventLog.Close())
	require.NoError(t, p.CheckReadiness(ctx))

	rows, err := csv.NewReader(&logBuf).ReadAll()
	require.NoError(t, err)
	logged := len(rows) - 1
	require.Positive(t, logged, "expected the run to produce events")

	counts, err := store.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, logged, counts[domain.Tornado]+counts[domain.Derecho])

	published := readEvents(ctx, t, broker, logged)
	assert.Equal(t, rows[1][0], fmt.Sprint(published[0].Record.Time))
	assert.Equal(t, rows[1][3], string(published[0].Record.Type))
}
