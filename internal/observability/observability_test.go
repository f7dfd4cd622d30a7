package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("timestep complete", "timestep", 10, "events", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "timestep complete", line["msg"])
	assert.Equal(t, "linearwind", line["service"])
	assert.InDelta(t, 10.0, line["timestep"], 0)
	assert.InDelta(t, 3.0, line["events"], 0)
}

func TestNewLogger_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "DEBUG", "text")

	logger.Debug("initiation probability", "p", 0.25)

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "p=0.25")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.Events.WithLabelValues("Tornado").Inc()
	a.Events.WithLabelValues("Tornado").Inc()
	b.Events.WithLabelValues("Derecho").Inc()

	assert.InDelta(t, 2.0, testutil.ToFloat64(a.Events.WithLabelValues("Tornado")), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(b.Events.WithLabelValues("Tornado")), 0)
}

func TestMetrics_RegisterOnFreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetricsForTesting()
	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}

	m.TimestepsRun.Inc()
	m.LastTimestep.Set(20)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "linearwind_timesteps_total")
	assert.Contains(t, names, "linearwind_last_timestep")
}
