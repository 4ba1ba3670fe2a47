package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolateEnv clears every variable Load reads so the host environment cannot leak in
func isolateEnv(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	for _, key := range []string{
		"SETTINGS_DIR", "DB_PATH", "STATIC_DIR", "SEED_PATH", "PORT", "LOG_LEVEL",
		"AI_REPLY_TIMEOUT", "GEMINI_API_KEY", "API_KEY",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("ENV_FILE", filepath.Join(tmpDir, "missing.env"))
	t.Setenv("SETTINGS_DIR", tmpDir)
	return tmpDir
}

func writeSecrets(t *testing.T, dir, content string) {
	t.Helper()
	secretsDir := filepath.Join(dir, "secrets")
	if err := os.MkdirAll(secretsDir, 0755); err != nil {
		t.Fatalf("failed to create secrets dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(secretsDir, "gemini.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
}

func TestLoadGeminiConfig_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeSecrets(t, tmpDir, "api_key: \"test-api-key-12345\"\nmodel: gemini-test\n")

	cfg, err := loadGeminiConfig(filepath.Join(tmpDir, "secrets", "gemini.yaml"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.APIKey != "test-api-key-12345" {
		t.Errorf("expected api_key 'test-api-key-12345', got '%s'", cfg.APIKey)
	}
	if cfg.Model != "gemini-test" {
		t.Errorf("expected model 'gemini-test', got '%s'", cfg.Model)
	}
}

func TestLoadGeminiConfig_FileNotFound(t *testing.T) {
	_, err := loadGeminiConfig("/nonexistent/path/gemini.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("missing secrets file should not fail: %v", err)
	}

	if cfg.DBPath != ":memory:" {
		t.Errorf("expected in-memory DB by default, got '%s'", cfg.DBPath)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got '%s'", cfg.Port)
	}
	if cfg.ReplyTimeout != 20*time.Second {
		t.Errorf("expected 20s reply timeout, got %v", cfg.ReplyTimeout)
	}
	if cfg.Gemini.APIKey != "" {
		t.Errorf("expected no API key, got '%s'", cfg.Gemini.APIKey)
	}
}

func TestLoad_WithEnvVars(t *testing.T) {
	tmpDir := isolateEnv(t)
	writeSecrets(t, tmpDir, `api_key: "file-key"`)

	t.Setenv("DB_PATH", "/custom/db/path.db")
	t.Setenv("STATIC_DIR", "/custom/static")
	t.Setenv("AI_REPLY_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.DBPath != "/custom/db/path.db" {
		t.Errorf("expected DB_PATH '/custom/db/path.db', got '%s'", cfg.DBPath)
	}
	if cfg.StaticDir != "/custom/static" {
		t.Errorf("expected STATIC_DIR '/custom/static', got '%s'", cfg.StaticDir)
	}
	if cfg.ReplyTimeout != 5*time.Second {
		t.Errorf("expected 5s reply timeout, got %v", cfg.ReplyTimeout)
	}
	if cfg.Gemini.APIKey != "file-key" {
		t.Errorf("expected API key 'file-key', got '%s'", cfg.Gemini.APIKey)
	}
}

func TestLoad_EnvKeyOverridesFile(t *testing.T) {
	tmpDir := isolateEnv(t)
	writeSecrets(t, tmpDir, `api_key: "file-key"`)
	t.Setenv("GEMINI_API_KEY", "env-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Gemini.APIKey != "env-key" {
		t.Errorf("expected API key 'env-key', got '%s'", cfg.Gemini.APIKey)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	tmpDir := isolateEnv(t)
	envFile := filepath.Join(tmpDir, "test.env")
	if err := os.WriteFile(envFile, []byte("API_KEY=dotenv-key\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("ENV_FILE", envFile)
	// Registered so t.Setenv restores it after godotenv writes it
	t.Setenv("API_KEY", "")
	os.Unsetenv("API_KEY")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Gemini.APIKey != "dotenv-key" {
		t.Errorf("expected API key 'dotenv-key', got '%s'", cfg.Gemini.APIKey)
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	isolateEnv(t)
	t.Setenv("AI_REPLY_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid AI_REPLY_TIMEOUT")
	}
}

func TestLoad_MalformedSecrets(t *testing.T) {
	tmpDir := isolateEnv(t)
	writeSecrets(t, tmpDir, "api_key: [unclosed")

	if _, err := Load(); err == nil {
		t.Error("expected error for malformed secrets file")
	}
}
