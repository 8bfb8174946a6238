// Package config provides configuration management for guardrail.
//
// Configuration is read from a YAML file, decoded on top of the defaults,
// overridden from GUARDRAIL_* environment variables and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("guardrail.yaml")
//
// An empty path skips the file and starts from Default().
//
// # Environment Variable Overrides
//
// Section fields follow GUARDRAIL_SECTION_FIELD, for example
// GUARDRAIL_SERVER_LISTEN_ADDRESS or GUARDRAIL_TELEMETRY_LOGGING_LEVEL.
// Capability settings use short keys shared with host deployments:
//
//   - GUARDRAIL_ENTAILMENT_ENDPOINT
//   - GUARDRAIL_VISION_ENDPOINT
//   - GUARDRAIL_CDN_TRANSFORM_ENDPOINT
//   - GUARDRAIL_GEMINI_API_KEY
//   - GUARDRAIL_CLOUD_VISION_ENABLED
//
// A capability whose endpoint or key is absent is disabled, and the engine
// skips the checks that need it.
//
// GUARDRAIL_SERVER_API_KEY adds one API key for the HTTP server on top of
// server.api_keys.
//
// # Singleton
//
// The CLI loads configuration once with Initialize and reads it with
// GetConfig. Library code takes explicit values instead.
//
// # Example Configuration
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//
//	rules:
//	  mode: file
//	  file_path: ./rules.yaml
//	  watch: true
//
//	engine:
//	  deadline: 30s
//
//	cache:
//	  backend: sqlite
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
package config
