package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"retailmedia-hq/guardrail/pkg/config"
)

// APIKeyHeader is accepted in place of an Authorization bearer token.
const APIKeyHeader = "X-API-Key"

var (
	errMissingAPIKey  = errors.New("no API key found")
	errInvalidAPIKey  = errors.New("invalid API key")
	errDisabledAPIKey = errors.New("API key disabled")
)

type clientKey struct{}

// ClientFromContext returns the name of the authenticated API client.
func ClientFromContext(ctx context.Context) (string, bool) {
	client, ok := ctx.Value(clientKey{}).(string)
	return client, ok
}

// apiKeyValidator checks keys against the configured set.
type apiKeyValidator struct {
	keys map[string]config.APIKeyConfig
}

func newAPIKeyValidator(keys []config.APIKeyConfig) *apiKeyValidator {
	m := make(map[string]config.APIKeyConfig, len(keys))
	for _, k := range keys {
		m[k.Key] = k
	}
	return &apiKeyValidator{keys: m}
}

func (v *apiKeyValidator) validate(key string) (string, error) {
	info, ok := v.keys[key]
	if !ok {
		return "", errInvalidAPIKey
	}
	if info.Disabled {
		return "", errDisabledAPIKey
	}
	return info.Client, nil
}

func extractAPIKey(r *http.Request) (string, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if key, ok := strings.CutPrefix(auth, "Bearer "); ok && key != "" {
			return key, nil
		}
	}
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key, nil
	}
	return "", errMissingAPIKey
}

// APIKeyMiddleware rejects requests without one of keys. With no keys
// configured it passes every request through.
func APIKeyMiddleware(keys []config.APIKeyConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if len(keys) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	validator := newAPIKeyValidator(keys)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := extractAPIKey(r)
			if err == nil {
				var client string
				if client, err = validator.validate(key); err == nil {
					logger.Debug("API key authenticated", "client", client, "path", r.URL.Path)
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientKey{}, client)))
					return
				}
			}

			reqLogger := logger.With("remote_addr", r.RemoteAddr, "path", r.URL.Path)
			reqLogger.Warn("request rejected", "error", err)
			writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		})
	}
}
