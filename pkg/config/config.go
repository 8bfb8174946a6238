package config

import "time"

// Config is the root configuration structure for guardrail.
type Config struct {
	// Server contains the HTTP host configuration used by "guardrail serve".
	Server ServerConfig `yaml:"server"`

	// Rules selects where the rule catalog is loaded from.
	Rules RulesConfig `yaml:"rules"`

	// Engine contains evaluation deadlines and semantic batching settings.
	Engine EngineConfig `yaml:"engine"`

	// Capabilities configures the AI capability providers. A provider without
	// an endpoint or key is disabled.
	Capabilities CapabilitiesConfig `yaml:"capabilities"`

	// Cache configures the capability result cache.
	Cache CacheConfig `yaml:"cache"`

	// Telemetry contains logging, metrics and tracing configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP host.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout must cover a full evaluation.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes caps request header size.
	// Default: 1MB
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes caps the snapshot payload. Snapshots carry data URLs, so
	// the default is generous.
	// Default: 32MB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// APIKeys, when non-empty, are required on /v1 endpoints as a bearer
	// token or in the X-API-Key header. Health, version and metrics stay open.
	APIKeys []APIKeyConfig `yaml:"api_keys"`
}

// APIKeyConfig is one accepted API key.
type APIKeyConfig struct {
	// Key is the secret value clients send.
	Key string `yaml:"key"`

	// Client names the caller in logs.
	Client string `yaml:"client"`

	// Disabled keys are rejected without removing them from the file.
	Disabled bool `yaml:"disabled"`
}

// RulesConfig selects the rule catalog source.
type RulesConfig struct {
	// Mode is "builtin", "file" or "git".
	// Default: "builtin"
	Mode string `yaml:"mode"`

	// FilePath is the JSON or YAML schema document used in file mode.
	FilePath string `yaml:"file_path"`

	// Watch reloads the catalog when the file changes (file mode) or polls
	// the repository (git mode).
	// Default: false
	Watch bool `yaml:"watch"`

	// WatchDebounce coalesces bursts of file events.
	// Default: 100ms
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	// Git configures git mode.
	Git GitConfig `yaml:"git"`
}

// GitConfig configures a rules repository.
type GitConfig struct {
	// Repository is the clone URL.
	Repository string `yaml:"repository"`

	// Branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path of the schema document inside the repository.
	// Default: "rules.json"
	Path string `yaml:"path"`

	// LocalPath is the working copy directory.
	LocalPath string `yaml:"local_path"`

	// PollInterval is how often the repository is pulled when watching.
	// Default: 5m
	PollInterval time.Duration `yaml:"poll_interval"`

	// Token enables HTTPS token authentication.
	Token string `yaml:"token"`

	// SSHKeyPath enables SSH key authentication.
	SSHKeyPath string `yaml:"ssh_key_path"`

	// Timeout bounds each clone or pull.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// EngineConfig mirrors engine.Config for the fields that come from files.
type EngineConfig struct {
	// Deadline bounds a whole evaluation.
	// Default: 30s
	Deadline time.Duration `yaml:"deadline"`

	// SemanticBatchSize is the number of entailment checks run concurrently.
	// Default: 5
	SemanticBatchSize int `yaml:"semantic_batch_size"`

	// SemanticBatchTimeout bounds one batch.
	// Default: 8s
	SemanticBatchTimeout time.Duration `yaml:"semantic_batch_timeout"`

	// SemanticTimeout bounds the semantic phase.
	// Default: 20s
	SemanticTimeout time.Duration `yaml:"semantic_timeout"`

	// SemanticMinConfidence is the entailment confidence needed to report.
	// Default: 0.75
	SemanticMinConfidence float64 `yaml:"semantic_min_confidence"`

	// VisionTimeout bounds the vision phase.
	// Default: 25s
	VisionTimeout time.Duration `yaml:"vision_timeout"`
}

// CapabilitiesConfig configures the capability providers. Providers are tried
// in the order http, gemini, cloudvision.
type CapabilitiesConfig struct {
	// EntailmentEndpoint is the URL of an NLI classification service.
	EntailmentEndpoint string `yaml:"entailment_endpoint"`

	// VisionEndpoint is the base URL of a vision service exposing
	// /people, /lockup and /packshots.
	VisionEndpoint string `yaml:"vision_endpoint"`

	// CDNTransformEndpoint rewrites remote image URLs through an image
	// transform service before download.
	CDNTransformEndpoint string `yaml:"cdn_transform_endpoint"`

	// APIKey is sent as a bearer token to the HTTP endpoints.
	APIKey string `yaml:"api_key"`

	// GeminiAPIKey enables the Gemini provider.
	GeminiAPIKey string `yaml:"gemini_api_key"`

	// GeminiModel overrides the Gemini model name.
	GeminiModel string `yaml:"gemini_model"`

	// CloudVisionEnabled enables the Cloud Vision people detector. It uses
	// application default credentials.
	// Default: false
	CloudVisionEnabled bool `yaml:"cloud_vision_enabled"`

	// CallTimeout bounds one provider call inside the chain.
	// Default: 10s
	CallTimeout time.Duration `yaml:"call_timeout"`

	// MaxRetries is the number of HTTP retries after the first attempt.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`

	// MaxImageDimension caps the longer side of uploaded images.
	// Default: 1536
	MaxImageDimension int `yaml:"max_image_dimension"`
}

// Enabled reports whether any provider is configured.
func (c *CapabilitiesConfig) Enabled() bool {
	return c.EntailmentEndpoint != "" || c.VisionEndpoint != "" || c.GeminiAPIKey != "" || c.CloudVisionEnabled
}

// CacheConfig configures the capability result cache.
type CacheConfig struct {
	// Enabled turns caching on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend is "memory", "sqlite" or "redis".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// TTL is how long a capability result stays valid.
	// Default: 24h
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries bounds the memory backend.
	// Default: 10000
	MaxEntries int `yaml:"max_entries"`

	// PruneSchedule is a cron expression for deleting expired entries.
	// Default: "*/15 * * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	SQLite SQLiteConfig `yaml:"sqlite"`
	Redis  RedisConfig  `yaml:"redis"`
}

// SQLiteConfig configures the SQLite cache backend.
type SQLiteConfig struct {
	// Path is the database file.
	// Default: "data/capability-cache.db"
	Path string `yaml:"path"`

	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RedisConfig configures the Redis cache backend.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks data URLs, base64 payloads and credentials.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`

	// RedactPatterns are additional patterns to mask.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern is a custom redaction rule.
type RedactPattern struct {
	// Pattern is a regular expression.
	Pattern string `yaml:"pattern"`

	// Replacement replaces each match.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the scrape endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "guardrail"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler is "always", "never" or "ratio".
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces sampled by the ratio sampler.
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter is the trace exporter. Only "otlp" is supported.
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP gRPC collector address, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service.name resource attribute.
	// Default: "guardrail"
	ServiceName string `yaml:"service_name"`

	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the collector connection.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
