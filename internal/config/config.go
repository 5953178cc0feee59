package config

import (
	"fmt"
	"os"
	"strconv"

	"heartdash/internal/errors"
)

// Data source kinds accepted in DATA_SOURCE
const (
	SourceCSV      = "csv"
	SourceXLSX     = "xlsx"
	SourcePostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Data      DataConfig
	Database  DatabaseConfig
	Dashboard DashboardConfig
	Profiling ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DataConfig selects where the patient table is read from
type DataConfig struct {
	File   string
	Source string // empty means "infer from the file extension"
}

// DatabaseConfig holds PostgreSQL settings for the postgres data source
type DatabaseConfig struct {
	URL   string
	Table string
}

// DashboardConfig points at optional overrides of the embedded layout
type DashboardConfig struct {
	LayoutFile string
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    *loadServerConfig(),
		Data:      *loadDataConfig(),
		Database:  *loadDatabaseConfig(),
		Dashboard: *loadDashboardConfig(),
		Profiling: *loadProfilingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadDataConfig() *DataConfig {
	return &DataConfig{
		File:   getEnvOrDefault("DATA_FILE", "historiales_clinicos.csv"),
		Source: getEnvOrDefault("DATA_SOURCE", ""),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:   getEnvOrDefault("DATABASE_URL", ""),
		Table: getEnvOrDefault("DATA_TABLE", "heart_failure_records"),
	}
}

func loadDashboardConfig() *DashboardConfig {
	return &DashboardConfig{
		LayoutFile: getEnvOrDefault("LAYOUT_FILE", ""),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid(fmt.Sprintf("PORT must be numeric, got %q", config.Server.Port))
	}

	switch config.Data.Source {
	case "", SourceCSV, SourceXLSX:
		if config.Data.File == "" {
			return errors.ConfigInvalid("DATA_FILE is required")
		}
	case SourcePostgres:
		if config.Database.URL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required when DATA_SOURCE=postgres")
		}
		if config.Database.Table == "" {
			return errors.ConfigInvalid("DATA_TABLE is required when DATA_SOURCE=postgres")
		}
	default:
		return errors.ConfigInvalid(fmt.Sprintf("unknown DATA_SOURCE %q", config.Data.Source))
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
