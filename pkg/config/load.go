package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path. The
// file is decoded on top of Default(), so omitted fields keep their defaults.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides for
// that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML configuration document.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration and applies GUARDRAIL_*
// environment variable overrides. An empty path starts from Default().
//
// The loading sequence is:
//  1. Load YAML from file (or defaults)
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean and duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	setString(&cfg.Server.ListenAddress, "GUARDRAIL_SERVER_LISTEN_ADDRESS")
	setDuration(&cfg.Server.ReadTimeout, "GUARDRAIL_SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "GUARDRAIL_SERVER_WRITE_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "GUARDRAIL_SERVER_SHUTDOWN_TIMEOUT")
	if key := os.Getenv("GUARDRAIL_SERVER_API_KEY"); key != "" {
		cfg.Server.APIKeys = append(cfg.Server.APIKeys, APIKeyConfig{Key: key, Client: "env"})
	}

	// Rules overrides
	setString(&cfg.Rules.Mode, "GUARDRAIL_RULES_MODE")
	setString(&cfg.Rules.FilePath, "GUARDRAIL_RULES_FILE_PATH")
	setBool(&cfg.Rules.Watch, "GUARDRAIL_RULES_WATCH")
	setString(&cfg.Rules.Git.Repository, "GUARDRAIL_RULES_GIT_REPOSITORY")
	setString(&cfg.Rules.Git.Branch, "GUARDRAIL_RULES_GIT_BRANCH")
	setString(&cfg.Rules.Git.Path, "GUARDRAIL_RULES_GIT_PATH")
	setString(&cfg.Rules.Git.Token, "GUARDRAIL_RULES_GIT_TOKEN")

	// Engine overrides
	setDuration(&cfg.Engine.Deadline, "GUARDRAIL_ENGINE_DEADLINE")
	setInt(&cfg.Engine.SemanticBatchSize, "GUARDRAIL_ENGINE_SEMANTIC_BATCH_SIZE")
	setDuration(&cfg.Engine.SemanticTimeout, "GUARDRAIL_ENGINE_SEMANTIC_TIMEOUT")
	setDuration(&cfg.Engine.VisionTimeout, "GUARDRAIL_ENGINE_VISION_TIMEOUT")

	// Capability overrides. These keys are shared with host deployments,
	// so they carry no section infix.
	setString(&cfg.Capabilities.EntailmentEndpoint, "GUARDRAIL_ENTAILMENT_ENDPOINT")
	setString(&cfg.Capabilities.VisionEndpoint, "GUARDRAIL_VISION_ENDPOINT")
	setString(&cfg.Capabilities.CDNTransformEndpoint, "GUARDRAIL_CDN_TRANSFORM_ENDPOINT")
	setString(&cfg.Capabilities.APIKey, "GUARDRAIL_CAPABILITY_API_KEY")
	setString(&cfg.Capabilities.GeminiAPIKey, "GUARDRAIL_GEMINI_API_KEY")
	setString(&cfg.Capabilities.GeminiModel, "GUARDRAIL_GEMINI_MODEL")
	setBool(&cfg.Capabilities.CloudVisionEnabled, "GUARDRAIL_CLOUD_VISION_ENABLED")

	// Cache overrides
	setBool(&cfg.Cache.Enabled, "GUARDRAIL_CACHE_ENABLED")
	setString(&cfg.Cache.Backend, "GUARDRAIL_CACHE_BACKEND")
	setDuration(&cfg.Cache.TTL, "GUARDRAIL_CACHE_TTL")
	setString(&cfg.Cache.SQLite.Path, "GUARDRAIL_CACHE_SQLITE_PATH")
	setString(&cfg.Cache.Redis.Addr, "GUARDRAIL_CACHE_REDIS_ADDR")
	setString(&cfg.Cache.Redis.Password, "GUARDRAIL_CACHE_REDIS_PASSWORD")

	// Telemetry overrides
	setString(&cfg.Telemetry.Logging.Level, "GUARDRAIL_TELEMETRY_LOGGING_LEVEL")
	setString(&cfg.Telemetry.Logging.Format, "GUARDRAIL_TELEMETRY_LOGGING_FORMAT")
	setBool(&cfg.Telemetry.Metrics.Enabled, "GUARDRAIL_TELEMETRY_METRICS_ENABLED")
	setString(&cfg.Telemetry.Metrics.Path, "GUARDRAIL_TELEMETRY_METRICS_PATH")
	setBool(&cfg.Telemetry.Tracing.Enabled, "GUARDRAIL_TELEMETRY_TRACING_ENABLED")
	setString(&cfg.Telemetry.Tracing.Endpoint, "GUARDRAIL_TELEMETRY_TRACING_ENDPOINT")
	setFloat(&cfg.Telemetry.Tracing.SampleRatio, "GUARDRAIL_TELEMETRY_TRACING_SAMPLE_RATIO")
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setBool(dst *bool, key string) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setFloat(dst *float64, key string) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
