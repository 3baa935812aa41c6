package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"dataprobe/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	AI     AIConfig
	Server ServerConfig
	Upload UploadConfig
	Ops    OpsConfig
	Log    LogConfig
}

// AIConfig holds settings for the OpenAI-compatible question answering endpoint.
// The defaults target a local Ollama instance, which needs no API key.
type AIConfig struct {
	BaseURL       string
	APIKey        string
	Model         string
	SystemContext string
	MaxTokens     int
	Temperature   float64
	Timeout       time.Duration // 0 disables the bound
	PromptsDir    string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// UploadConfig holds dataset upload and display limits
type UploadConfig struct {
	MaxBytes    int64
	PreviewRows int
}

// OpsConfig holds the pprof/metrics/health server settings
type OpsConfig struct {
	Port    string
	Enabled bool
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		AI:     *loadAIConfig(),
		Server: *loadServerConfig(),
		Upload: *loadUploadConfig(),
		Ops:    *loadOpsConfig(),
		Log:    LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadAIConfig() *AIConfig {
	return &AIConfig{
		BaseURL:       strings.TrimRight(getEnvOrDefault("LLM_BASE_URL", "http://localhost:11434/v1"), "/"),
		APIKey:        os.Getenv("OPENAI_API_KEY"),
		Model:         getEnvOrDefault("LLM_MODEL", "tinyllama"),
		SystemContext: getEnvOrDefault("LLM_SYSTEM_CONTEXT", "You are a data analyst answering questions about a tabular dataset."),
		MaxTokens:     getEnvIntOrDefault("MAX_TOKENS", 1024),
		Temperature:   getEnvFloatOrDefault("TEMPERATURE", 0.1),
		Timeout:       getEnvDurationOrDefault("LLM_TIMEOUT", 2*time.Minute),
		PromptsDir:    os.Getenv("PROMPTS_DIR"),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadUploadConfig() *UploadConfig {
	return &UploadConfig{
		MaxBytes:    int64(getEnvIntOrDefault("MAX_UPLOAD_MB", 50)) * 1024 * 1024,
		PreviewRows: getEnvIntOrDefault("PREVIEW_ROWS", 5),
	}
}

func loadOpsConfig() *OpsConfig {
	return &OpsConfig{
		Port:    getEnvOrDefault("OPS_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("OPS_ENABLED", true),
	}
}

func validateConfig(config *Config) error {
	if config.AI.BaseURL == "" {
		return errors.ConfigInvalid("LLM_BASE_URL is required")
	}
	if config.AI.Model == "" {
		return errors.ConfigInvalid("LLM_MODEL is required")
	}
	if config.AI.MaxTokens <= 0 {
		return errors.ConfigInvalid("MAX_TOKENS must be positive")
	}
	if config.AI.Timeout < 0 {
		return errors.ConfigInvalid("LLM_TIMEOUT must not be negative")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.Upload.MaxBytes <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_MB must be positive")
	}
	if config.Upload.PreviewRows <= 0 {
		return errors.ConfigInvalid("PREVIEW_ROWS must be positive")
	}
	if config.Ops.Enabled && config.Ops.Port == config.Server.Port {
		return errors.ConfigInvalid("OPS_PORT must differ from PORT")
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if value == "0" {
			return 0
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
