package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"market-terminal/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// Defaults returns the configuration used when no file is present.
func Defaults() *models.MConfig {
	return &models.MConfig{
		Name:     "market-terminal",
		Host:     "0.0.0.0",
		Port:     8000,
		LogLevel: "INFO",
		GrpcHost: "0.0.0.0",
		GrpcPort: 0,
		SharedStore: models.MSharedStoreConfig{
			TimeoutMillis:          250,
			CleanupIntervalMinutes: 10,
			HealthIntervalSeconds:  15,
		},
		Network: models.MNetworkConfig{
			RequestTimeout:        20,
			MaxRetries:            2,
			PriceTimeoutSeconds:   5,
			HistoryTimeoutSeconds: 15,
		},
		DataSource: models.MDataSourceConfig{
			Name:    "yahoo",
			BaseURL: "https://query1.finance.yahoo.com",
		},
	}
}

// -----------------------------------------------------------------------------

// NewConfig loads the YAML file over the defaults, then applies .env and
// environment overrides. A missing file is not an error.
func NewConfig(configPath string) (*Config, error) {
	modelConfig := Defaults()

	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// 2. Unmarshal data into the models struct
		if err := yaml.Unmarshal(data, modelConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 3. Environment wins over the file
	_ = godotenv.Load()
	applyEnv(modelConfig)

	config := &Config{MConfig: modelConfig}

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func applyEnv(cfg *models.MConfig) {
	cfg.SharedStore.URL = getEnv("REDIS_URL", cfg.SharedStore.URL)
	cfg.Host = getEnv("HOST", cfg.Host)
	cfg.Port = getEnvAsInt("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.GrpcPort = getEnvAsInt("GRPC_PORT", cfg.GrpcPort)
	cfg.DataSource.BaseURL = getEnv("YAHOO_BASE_URL", cfg.DataSource.BaseURL)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Validate Server configuration (Flattened)
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1 and 65535)", c.Port)
	}
	if c.GrpcPort < 0 || c.GrpcPort > 65535 {
		return fmt.Errorf("invalid grpc port number: %d (0 disables)", c.GrpcPort)
	}
	if c.GrpcPort != 0 && c.GrpcPort == c.Port && c.GrpcHost == c.Host {
		return fmt.Errorf("grpc and http servers cannot share port %d", c.Port)
	}

	// Validate Shared store configuration
	if c.SharedStore.TimeoutMillis < 0 {
		return fmt.Errorf("shared store timeout cannot be negative")
	}
	if c.SharedStore.CleanupIntervalMinutes < 0 || c.SharedStore.HealthIntervalSeconds < 0 {
		return fmt.Errorf("shared store intervals cannot be negative")
	}

	// Validate Network configuration
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.PriceTimeoutSeconds < 0 || c.Network.HistoryTimeoutSeconds < 0 {
		return fmt.Errorf("upstream timeouts cannot be negative")
	}

	// Validate DataSource configuration
	if c.DataSource.Name == "" {
		return fmt.Errorf("data source must have a name")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
