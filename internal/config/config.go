package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	ParametersFile string
	LandscapeFile  string
	OutputDir      string

	// Seed of the random stream. Zero picks a seed from the clock.
	Seed        uint64
	StartTime   int
	Duration    int // years
	ParityDraws bool

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// SQLitePath enables the SQLite event store when set.
	SQLitePath string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("SEED", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SEED: %w", err)
	}
	startTime, err := parseInt("START_TIME", "0")
	if err != nil {
		return nil, err
	}
	duration, err := parseInt("DURATION", "100")
	if err != nil {
		return nil, err
	}
	parity, err := parseBool("PARITY_DRAWS", "true")
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", "false")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ParametersFile:  sharedcfg.EnvOrDefault("PARAMETERS_FILE", ""),
		LandscapeFile:   sharedcfg.EnvOrDefault("LANDSCAPE_FILE", ""),
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "."),
		Seed:            seed,
		StartTime:       startTime,
		Duration:        duration,
		ParityDraws:     parity,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaEnabled:    kafkaEnabled,
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "linear-wind-events"),
		SQLitePath:      sharedcfg.EnvOrDefault("SQLITE_PATH", ""),
	}

	if cfg.ParametersFile == "" {
		return nil, errors.New("PARAMETERS_FILE is required")
	}
	if cfg.LandscapeFile == "" {
		return nil, errors.New("LANDSCAPE_FILE is required")
	}
	if cfg.Duration < 0 {
		return nil, errors.New("DURATION must not be negative")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

func parseInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseBool(key, def string) (bool, error) {
	b, err := strconv.ParseBool(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
