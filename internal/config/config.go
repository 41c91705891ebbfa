package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mvallerand/footgraph/internal/platform/logging"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// Config stores runtime configuration for the pipeline. Everything is
// env-driven with workable defaults, so a bare `footgraph` invocation only
// needs CLI flags.
type Config struct {
	AppEnv   string
	LogLevel logging.Level

	StatsBombBaseURL    string
	StatsBombTimeout    time.Duration
	StatsBombMaxRetries int
	StatsBombWorkers    int

	FootballiaBaseURL    string
	FootballiaTimeout    time.Duration
	FootballiaMaxRetries int
	FootballiaWorkers    int
	FootballiaSleepMin   time.Duration
	FootballiaSleepMax   time.Duration

	IngestProgressEvery int
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	statsBombTimeout, err := time.ParseDuration(getEnv("STATSBOMB_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSBOMB_TIMEOUT: %w", err)
	}
	statsBombMaxRetries, err := getEnvAsInt("STATSBOMB_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSBOMB_MAX_RETRIES: %w", err)
	}
	statsBombWorkers, err := getEnvAsInt("STATSBOMB_WORKERS", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse STATSBOMB_WORKERS: %w", err)
	}

	footballiaTimeout, err := time.ParseDuration(getEnv("FOOTBALLIA_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALLIA_TIMEOUT: %w", err)
	}
	footballiaMaxRetries, err := getEnvAsInt("FOOTBALLIA_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALLIA_MAX_RETRIES: %w", err)
	}
	footballiaWorkers, err := getEnvAsInt("FOOTBALLIA_WORKERS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALLIA_WORKERS: %w", err)
	}
	footballiaSleepMin, err := time.ParseDuration(getEnv("FOOTBALLIA_SLEEP_MIN", "1s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALLIA_SLEEP_MIN: %w", err)
	}
	footballiaSleepMax, err := time.ParseDuration(getEnv("FOOTBALLIA_SLEEP_MAX", "2500ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALLIA_SLEEP_MAX: %w", err)
	}
	if footballiaSleepMax < footballiaSleepMin {
		return Config{}, fmt.Errorf("FOOTBALLIA_SLEEP_MAX must not be below FOOTBALLIA_SLEEP_MIN")
	}

	ingestProgressEvery, err := getEnvAsInt("INGEST_PROGRESS_EVERY", 25)
	if err != nil {
		return Config{}, fmt.Errorf("parse INGEST_PROGRESS_EVERY: %w", err)
	}

	return Config{
		AppEnv:   appEnv,
		LogLevel: parseLogLevel(getEnv("LOG_LEVEL", "info")),

		StatsBombBaseURL:    strings.TrimSpace(getEnv("STATSBOMB_BASE_URL", "")),
		StatsBombTimeout:    statsBombTimeout,
		StatsBombMaxRetries: statsBombMaxRetries,
		StatsBombWorkers:    statsBombWorkers,

		FootballiaBaseURL:    strings.TrimSpace(getEnv("FOOTBALLIA_BASE_URL", "")),
		FootballiaTimeout:    footballiaTimeout,
		FootballiaMaxRetries: footballiaMaxRetries,
		FootballiaWorkers:    footballiaWorkers,
		FootballiaSleepMin:   footballiaSleepMin,
		FootballiaSleepMax:   footballiaSleepMax,

		IngestProgressEvery: ingestProgressEvery,
	}, nil
}

func parseAppEnv(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case EnvDev:
		return EnvDev, nil
	case EnvProd:
		return EnvProd, nil
	default:
		return "", fmt.Errorf("unknown APP_ENV %q", v)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}
