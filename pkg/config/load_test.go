package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guardrail.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: "45s"

rules:
  mode: file
  file_path: ./rules.yaml
  watch: true

engine:
  deadline: 10s
  semantic_batch_size: 3

capabilities:
  entailment_endpoint: "https://nli.internal/classify"

cache:
  backend: sqlite
  sqlite:
    driver: sqlite3

telemetry:
  logging:
    level: debug
    format: text
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("Server.ListenAddress = %q, want %q", cfg.Server.ListenAddress, "0.0.0.0:9090")
	}
	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("Server.WriteTimeout = %v, want default %v", cfg.Server.WriteTimeout, DefaultWriteTimeout)
	}
	if cfg.Rules.Mode != "file" || !cfg.Rules.Watch {
		t.Errorf("Rules = %+v, want file mode with watch", cfg.Rules)
	}
	if cfg.Engine.Deadline != 10*time.Second {
		t.Errorf("Engine.Deadline = %v, want 10s", cfg.Engine.Deadline)
	}
	if cfg.Engine.SemanticBatchSize != 3 {
		t.Errorf("Engine.SemanticBatchSize = %d, want 3", cfg.Engine.SemanticBatchSize)
	}
	if cfg.Engine.SemanticTimeout != DefaultSemanticTimeout {
		t.Errorf("Engine.SemanticTimeout = %v, want default", cfg.Engine.SemanticTimeout)
	}
	if !cfg.Capabilities.Enabled() {
		t.Error("Capabilities.Enabled() = false with an entailment endpoint")
	}
	if cfg.Cache.SQLite.Driver != "sqlite3" || cfg.Cache.SQLite.Path != DefaultSQLitePath {
		t.Errorf("Cache.SQLite = %+v", cfg.Cache.SQLite)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want default true when omitted")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("Telemetry.Metrics.Enabled = true, want false from file")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Telemetry.Logging.Level = %q, want %q", cfg.Telemetry.Logging.Level, "debug")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadConfig() error = nil, want error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadConfig() error = %v, want os.ErrNotExist", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() error = nil, want parse error")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
rules:
  mode: git
telemetry:
  logging:
    level: verbose
`)

	_, err := LoadConfig(path)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("LoadConfig() error = %v, want ValidationError", err)
	}
	fields := make(map[string]bool)
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"rules.git.repository", "telemetry.logging.level"} {
		if !fields[want] {
			t.Errorf("ValidationError missing field %q: %v", want, verr)
		}
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8080"
`)

	t.Setenv("GUARDRAIL_SERVER_LISTEN_ADDRESS", "0.0.0.0:7070")
	t.Setenv("GUARDRAIL_ENTAILMENT_ENDPOINT", "http://nli:8000/v1/classify")
	t.Setenv("GUARDRAIL_VISION_ENDPOINT", "http://vision:8001")
	t.Setenv("GUARDRAIL_CDN_TRANSFORM_ENDPOINT", "https://cdn.example.com/transform")
	t.Setenv("GUARDRAIL_GEMINI_API_KEY", "gm-key")
	t.Setenv("GUARDRAIL_CLOUD_VISION_ENABLED", "true")
	t.Setenv("GUARDRAIL_ENGINE_DEADLINE", "5s")
	t.Setenv("GUARDRAIL_ENGINE_SEMANTIC_BATCH_SIZE", "not-a-number")
	t.Setenv("GUARDRAIL_TELEMETRY_LOGGING_LEVEL", "warn")
	t.Setenv("GUARDRAIL_SERVER_API_KEY", "gr-test-key")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"listen address", cfg.Server.ListenAddress, "0.0.0.0:7070"},
		{"entailment endpoint", cfg.Capabilities.EntailmentEndpoint, "http://nli:8000/v1/classify"},
		{"vision endpoint", cfg.Capabilities.VisionEndpoint, "http://vision:8001"},
		{"cdn endpoint", cfg.Capabilities.CDNTransformEndpoint, "https://cdn.example.com/transform"},
		{"gemini key", cfg.Capabilities.GeminiAPIKey, "gm-key"},
		{"cloud vision", cfg.Capabilities.CloudVisionEnabled, true},
		{"deadline", cfg.Engine.Deadline, 5 * time.Second},
		{"malformed batch size ignored", cfg.Engine.SemanticBatchSize, DefaultSemanticBatchSize},
		{"log level", cfg.Telemetry.Logging.Level, "warn"},
		{"server api keys", len(cfg.Server.APIKeys), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides(\"\") error = %v", err)
	}
	if cfg.Rules.Mode != DefaultRulesMode {
		t.Errorf("Rules.Mode = %q, want %q", cfg.Rules.Mode, DefaultRulesMode)
	}
	if cfg.Capabilities.Enabled() {
		t.Error("Capabilities.Enabled() = true without endpoints")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidAfterOverride(t *testing.T) {
	t.Setenv("GUARDRAIL_ENTAILMENT_ENDPOINT", "ftp://nli")

	_, err := LoadConfigWithEnvOverrides("")
	if err == nil {
		t.Fatal("LoadConfigWithEnvOverrides() error = nil, want validation error")
	}
	if !strings.Contains(err.Error(), "capabilities.entailment_endpoint") {
		t.Errorf("error = %v, want mention of capabilities.entailment_endpoint", err)
	}
}
