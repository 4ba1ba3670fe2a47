package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultReplyTimeout = 20 * time.Second

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	ImageModel string `yaml:"image_model"`
}

// Config holds all application configuration
type Config struct {
	Gemini       GeminiConfig
	DBPath       string
	StaticDir    string
	SettingsDir  string
	SeedPath     string
	Port         string
	LogLevel     string
	ReplyTimeout time.Duration
}

// Load loads configuration from a .env file, the environment and the secrets file.
// Variables already set in the environment win over .env entries.
func Load() (*Config, error) {
	if err := loadDotEnv(getEnvOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	settingsDir := getEnvOrDefault("SETTINGS_DIR", "settings")

	cfg := &Config{
		DBPath:       getEnvOrDefault("DB_PATH", ":memory:"),
		StaticDir:    getEnvOrDefault("STATIC_DIR", "static"),
		SettingsDir:  settingsDir,
		SeedPath:     os.Getenv("SEED_PATH"),
		Port:         getEnvOrDefault("PORT", "8080"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		ReplyTimeout: defaultReplyTimeout,
	}

	if v := os.Getenv("AI_REPLY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid AI_REPLY_TIMEOUT %q", v)
		}
		cfg.ReplyTimeout = d
	}

	geminiCfg, err := loadGeminiConfig(filepath.Join(settingsDir, "secrets", "gemini.yaml"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if geminiCfg != nil {
		cfg.Gemini = *geminiCfg
	}

	for _, key := range []string{"GEMINI_API_KEY", "API_KEY"} {
		if v := os.Getenv(key); v != "" {
			cfg.Gemini.APIKey = v
			break
		}
	}

	return cfg, nil
}

// loadGeminiConfig loads Gemini configuration from a YAML file
func loadGeminiConfig(path string) (*GeminiConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg GeminiConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &cfg, nil
}

// loadDotEnv loads path into the environment when it exists
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
