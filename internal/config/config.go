package config

import (
	"os"
	"strconv"

	"github.com/salmanhiro/starnet/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database    DatabaseConfig
	Paths       PathConfig
	Data        DataConfig
	Propagation PropagationConfig
	Server      ServerConfig
}

// DatabaseConfig holds connection settings for the relational archive mirror
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// PathConfig holds file system paths
type PathConfig struct {
	ArchiveFile string // columnar spectrum archive
	CatalogFile string // optional xlsx label catalog
	StatsFile   string // normalization stats persistence
	RunDir      string // run manifests and reports
}

// DataConfig holds data processing settings
type DataConfig struct {
	TrainFraction float64
	Seed          int64
	MaxBatchRows  int // upper bound on rows materialized per load batch
	CleanWorkers  int
	OutlierClip   float64 // sigma threshold; 0 disables clipping
}

// PropagationConfig holds uncertainty-estimation settings
type PropagationConfig struct {
	EnsembleSize int
	NoiseScale   float64
	Policy       string // "noise", "stochastic", or "both"
	MaxBatch     int    // members per model call
	Percentile   float64
}

// ServerConfig holds prediction-service settings
type ServerConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Paths: PathConfig{
			ArchiveFile: getEnvOrDefault("ARCHIVE_FILE", "data/starnet_training.cols"),
			CatalogFile: getEnvOrDefault("CATALOG_FILE", ""),
			StatsFile:   getEnvOrDefault("STATS_FILE", "data/label_stats.json"),
			RunDir:      getEnvOrDefault("RUN_DIR", "runs"),
		},
		Data: DataConfig{
			TrainFraction: getEnvFloatOrDefault("TRAIN_FRACTION", 0.9),
			Seed:          int64(getEnvIntOrDefault("SEED", 42)),
			MaxBatchRows:  getEnvIntOrDefault("MAX_BATCH_ROWS", 4096),
			CleanWorkers:  getEnvIntOrDefault("CLEAN_WORKERS", 4),
			OutlierClip:   getEnvFloatOrDefault("OUTLIER_CLIP_SIGMA", 0),
		},
		Propagation: PropagationConfig{
			EnsembleSize: getEnvIntOrDefault("ENSEMBLE_SIZE", 200),
			NoiseScale:   getEnvFloatOrDefault("NOISE_SCALE", 1.0),
			Policy:       getEnvOrDefault("PERTURBATION_POLICY", "noise"),
			MaxBatch:     getEnvIntOrDefault("PROPAGATION_MAX_BATCH", 64),
			Percentile:   getEnvFloatOrDefault("UNCERTAINTY_PERCENTILE", 95),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Data.TrainFraction <= 0 || config.Data.TrainFraction >= 1 {
		return errors.ConfigInvalid("TRAIN_FRACTION must be in (0,1)")
	}
	if config.Propagation.EnsembleSize < 2 {
		return errors.ConfigInvalid("ENSEMBLE_SIZE must be at least 2")
	}
	switch config.Propagation.Policy {
	case "noise", "stochastic", "both":
	default:
		return errors.ConfigInvalid("PERTURBATION_POLICY must be noise, stochastic, or both")
	}
	if config.Data.MaxBatchRows < 1 {
		return errors.ConfigInvalid("MAX_BATCH_ROWS must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
