package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20
	DefaultMaxBodyBytes    = int64(32 << 20)

	// Rules defaults
	DefaultRulesMode       = "builtin"
	DefaultWatchDebounce   = 100 * time.Millisecond
	DefaultGitBranch       = "main"
	DefaultGitPath         = "rules.json"
	DefaultGitPollInterval = 5 * time.Minute
	DefaultGitTimeout      = 30 * time.Second

	// Engine defaults
	DefaultDeadline              = 30 * time.Second
	DefaultSemanticBatchSize     = 5
	DefaultSemanticBatchTimeout  = 8 * time.Second
	DefaultSemanticTimeout       = 20 * time.Second
	DefaultSemanticMinConfidence = 0.75
	DefaultVisionTimeout         = 25 * time.Second

	// Capability defaults
	DefaultCallTimeout       = 10 * time.Second
	DefaultMaxRetries        = 2
	DefaultMaxImageDimension = 1536

	// Cache defaults
	DefaultCacheEnabled       = true
	DefaultCacheBackend       = "memory"
	DefaultCacheTTL           = 24 * time.Hour
	DefaultCacheMaxEntries    = 10000
	DefaultCachePruneSchedule = "*/15 * * * *"
	DefaultSQLitePath         = "data/capability-cache.db"
	DefaultSQLiteDriver       = "sqlite"
	DefaultSQLiteBusyTimeout  = 5 * time.Second
	DefaultRedisKeyPrefix     = "guardrail:capability:"

	// Telemetry defaults
	DefaultLoggingLevel    = "info"
	DefaultLoggingFormat   = "json"
	DefaultRedactSecrets   = true
	DefaultMetricsEnabled  = true
	DefaultMetricsPath     = "/metrics"
	DefaultMetricsNS       = "guardrail"
	DefaultTracingSampler  = "ratio"
	DefaultTracingRatio    = 0.1
	DefaultTracingExporter = "otlp"
	DefaultServiceName     = "guardrail"
	DefaultOTLPTimeout     = 10 * time.Second
)

// Default returns a configuration with every default applied. Boolean
// defaults that are true can only be expressed here, so loaders decode files
// on top of this value.
func Default() *Config {
	cfg := &Config{}
	cfg.Cache.Enabled = DefaultCacheEnabled
	cfg.Telemetry.Logging.RedactSecrets = DefaultRedactSecrets
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// Rules defaults
	if cfg.Rules.Mode == "" {
		cfg.Rules.Mode = DefaultRulesMode
	}
	if cfg.Rules.WatchDebounce == 0 {
		cfg.Rules.WatchDebounce = DefaultWatchDebounce
	}
	if cfg.Rules.Git.Branch == "" {
		cfg.Rules.Git.Branch = DefaultGitBranch
	}
	if cfg.Rules.Git.Path == "" {
		cfg.Rules.Git.Path = DefaultGitPath
	}
	if cfg.Rules.Git.PollInterval == 0 {
		cfg.Rules.Git.PollInterval = DefaultGitPollInterval
	}
	if cfg.Rules.Git.Timeout == 0 {
		cfg.Rules.Git.Timeout = DefaultGitTimeout
	}

	// Engine defaults
	if cfg.Engine.Deadline == 0 {
		cfg.Engine.Deadline = DefaultDeadline
	}
	if cfg.Engine.SemanticBatchSize == 0 {
		cfg.Engine.SemanticBatchSize = DefaultSemanticBatchSize
	}
	if cfg.Engine.SemanticBatchTimeout == 0 {
		cfg.Engine.SemanticBatchTimeout = DefaultSemanticBatchTimeout
	}
	if cfg.Engine.SemanticTimeout == 0 {
		cfg.Engine.SemanticTimeout = DefaultSemanticTimeout
	}
	if cfg.Engine.SemanticMinConfidence == 0 {
		cfg.Engine.SemanticMinConfidence = DefaultSemanticMinConfidence
	}
	if cfg.Engine.VisionTimeout == 0 {
		cfg.Engine.VisionTimeout = DefaultVisionTimeout
	}

	// Capability defaults
	if cfg.Capabilities.CallTimeout == 0 {
		cfg.Capabilities.CallTimeout = DefaultCallTimeout
	}
	if cfg.Capabilities.MaxRetries == 0 {
		cfg.Capabilities.MaxRetries = DefaultMaxRetries
	}
	if cfg.Capabilities.MaxImageDimension == 0 {
		cfg.Capabilities.MaxImageDimension = DefaultMaxImageDimension
	}

	// Cache defaults
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Cache.PruneSchedule == "" {
		cfg.Cache.PruneSchedule = DefaultCachePruneSchedule
	}
	if cfg.Cache.SQLite.Path == "" {
		cfg.Cache.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Cache.SQLite.Driver == "" {
		cfg.Cache.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Cache.SQLite.BusyTimeout == 0 {
		cfg.Cache.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}
	if cfg.Cache.Redis.KeyPrefix == "" {
		cfg.Cache.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNS
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingRatio
	}
	if cfg.Telemetry.Tracing.Exporter == "" {
		cfg.Telemetry.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
}
