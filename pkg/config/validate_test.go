package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Validate(Default()) = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"listen address without port", func(c *Config) { c.Server.ListenAddress = "localhost" }, "server.listen_address"},
		{"negative body limit", func(c *Config) { c.Server.MaxBodyBytes = -1 }, "server.max_body_bytes"},
		{"empty api key", func(c *Config) { c.Server.APIKeys = []APIKeyConfig{{Client: "ci"}} }, "server.api_keys[0].key"},
		{"duplicate api key", func(c *Config) {
			c.Server.APIKeys = []APIKeyConfig{{Key: "k1"}, {Key: "k1"}}
		}, "server.api_keys[1].key"},
		{"unknown rules mode", func(c *Config) { c.Rules.Mode = "s3" }, "rules.mode"},
		{"file mode without path", func(c *Config) { c.Rules.Mode = "file" }, "rules.file_path"},
		{"git mode without repository", func(c *Config) { c.Rules.Mode = "git" }, "rules.git.repository"},
		{"git double auth", func(c *Config) {
			c.Rules.Mode = "git"
			c.Rules.Git.Repository = "https://example.com/rules.git"
			c.Rules.Git.Token = "t"
			c.Rules.Git.SSHKeyPath = "/id"
		}, "rules.git"},
		{"negative deadline", func(c *Config) { c.Engine.Deadline = -time.Second }, "engine.deadline"},
		{"zero batch size", func(c *Config) { c.Engine.SemanticBatchSize = -1 }, "engine.semantic_batch_size"},
		{"batch timeout above total", func(c *Config) { c.Engine.SemanticBatchTimeout = time.Minute }, "engine.semantic_batch_timeout"},
		{"confidence above one", func(c *Config) { c.Engine.SemanticMinConfidence = 1.5 }, "engine.semantic_min_confidence"},
		{"vision endpoint without scheme", func(c *Config) { c.Capabilities.VisionEndpoint = "vision:8001" }, "capabilities.vision_endpoint"},
		{"negative retries", func(c *Config) { c.Capabilities.MaxRetries = -1 }, "capabilities.max_retries"},
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"redis without address", func(c *Config) { c.Cache.Backend = "redis" }, "cache.redis.addr"},
		{"bad sqlite driver", func(c *Config) {
			c.Cache.Backend = "sqlite"
			c.Cache.SQLite.Driver = "postgres"
		}, "cache.sqlite.driver"},
		{"bad prune schedule", func(c *Config) { c.Cache.PruneSchedule = "every day" }, "cache.prune_schedule"},
		{"bad log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"empty redact pattern", func(c *Config) {
			c.Telemetry.Logging.RedactPatterns = []RedactPattern{{Replacement: "x"}}
		}, "telemetry.logging.redact_patterns[0].pattern"},
		{"metrics path without slash", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
		{"tracing without endpoint", func(c *Config) { c.Telemetry.Tracing.Enabled = true }, "telemetry.tracing.endpoint"},
		{"bad sampler", func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" }, "telemetry.tracing.sampler"},
		{"ratio above one", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 2 }, "telemetry.tracing.sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := Validate(cfg)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want ValidationError", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors = %v, want field %q", verr.Errors, tt.field)
			}
		})
	}
}

func TestValidate_DisabledCacheSkipsBackendChecks(t *testing.T) {
	cfg := Default()
	cfg.Cache.Enabled = false
	cfg.Cache.Backend = "redis"

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() = %v, want nil for a disabled cache", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got, want := single.Error(), "configuration validation failed: a: bad"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	got := multi.Error()
	if !strings.HasPrefix(got, "configuration validation failed with 2 errors:") {
		t.Errorf("Error() = %q, want error count prefix", got)
	}
	if !strings.Contains(got, "  - b: worse") {
		t.Errorf("Error() = %q, want each field listed", got)
	}
}
