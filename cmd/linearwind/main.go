package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/couchcryptid/storm-linearwind/internal/adapter/csvlog"
	httpadapter "github.com/couchcryptid/storm-linearwind/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-linearwind/internal/adapter/kafka"
	"github.com/couchcryptid/storm-linearwind/internal/adapter/raster"
	"github.com/couchcryptid/storm-linearwind/internal/adapter/sqlite"
	"github.com/couchcryptid/storm-linearwind/internal/config"
	"github.com/couchcryptid/storm-linearwind/internal/domain"
	"github.com/couchcryptid/storm-linearwind/internal/landscape"
	"github.com/couchcryptid/storm-linearwind/internal/observability"
	"github.com/couchcryptid/storm-linearwind/internal/paramfile"
	"github.com/couchcryptid/storm-linearwind/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	grid, err := landscape.Load(cfg.LandscapeFile)
	if err != nil {
		logger.Error("failed to load landscape", "error", err)
		os.Exit(1)
	}
	params, err := paramfile.Load(cfg.ParametersFile, grid)
	if err != nil {
		logger.Error("failed to load parameters", "error", err)
		os.Exit(1)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	logger.Info("random stream seeded", "seed", seed, "parity_draws", cfg.ParityDraws)

	orch := domain.NewOrchestrator(params, grid, domain.NewRandomStream(seed),
		domain.WithParityDraws(cfg.ParityDraws),
		domain.WithLogger(logger),
	)

	eventLog, err := csvlog.Create(resolve(cfg.OutputDir, params.LogFile))
	if err != nil {
		logger.Error("failed to create event log", "error", err)
		os.Exit(1)
	}
	opts := []pipeline.Option{
		pipeline.WithSink(pipeline.Sink{Name: "log", Loader: eventLog, Required: true}),
	}
	closers := []namedCloser{{"event log", eventLog}}
	ready := httpadapter.AllReady{}

	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, pipeline.WithSink(pipeline.Sink{Name: "kafka", Loader: writer}))
		closers = append(closers, namedCloser{"kafka writer", writer})
		logger.Info("kafka event sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			logger.Error("failed to open sqlite store", "error", err)
			os.Exit(1)
		}
		opts = append(opts, pipeline.WithSink(pipeline.Sink{Name: "sqlite", Loader: store}))
		closers = append(closers, namedCloser{"sqlite store", store})
		ready = append(ready, store)
		logger.Info("sqlite event sink enabled", "path", cfg.SQLitePath)
	}
	if params.SeverityMapNames != "" || params.IntensityMapNames != "" {
		opts = append(opts, pipeline.WithMapWriter(
			raster.NewWriter(cfg.OutputDir, params.SeverityMapNames, params.IntensityMapNames, grid.CellLength()),
		))
	}

	p := pipeline.New(orch, grid, pipeline.Schedule{
		StartTime: cfg.StartTime,
		Duration:  cfg.Duration,
		Timestep:  params.Timestep,
	}, logger, metrics, opts...)

	ready = append(ready, p)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the simulation; a signal stops it after the current timestep.
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	exitCode := 0
	if err := <-done; err != nil {
		logger.Error("simulation error", "error", err)
		exitCode = 1
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closeAll(closers, logger)

	logger.Info("shutdown complete")
	if exitCode != 0 {
		os.Exit(exitCode) //nolint:gocritic // deferred cancels are irrelevant at exit
	}
}

// resolve places relative output paths under the output directory.
func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

type namedCloser struct {
	name string
	c    io.Closer
}

// closeAll closes in reverse open order and keeps going past failures.
func closeAll(closers []namedCloser, logger *slog.Logger) {
	for _, nc := range slices.Backward(closers) {
		if err := nc.c.Close(); err != nil {
			logger.Error("close error", "component", nc.name, "error", err)
		}
	}
}
