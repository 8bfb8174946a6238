package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"retailmedia-hq/guardrail/pkg/config"
	"retailmedia-hq/guardrail/pkg/rules"
)

func TestAPIKeyAuth(t *testing.T) {
	cfg := config.Default().Server
	cfg.APIKeys = []config.APIKeyConfig{
		{Key: "gr-live", Client: "editor"},
		{Key: "gr-old", Client: "legacy", Disabled: true},
	}
	h := New(&cfg, newEngine(t, rules.Default()), WithLogger(quietLogger())).Handler()

	tests := []struct {
		name     string
		path     string
		header   string
		value    string
		wantCode int
	}{
		{"bearer token", "/v1/rules", "Authorization", "Bearer gr-live", http.StatusOK},
		{"api key header", "/v1/rules", APIKeyHeader, "gr-live", http.StatusOK},
		{"missing key", "/v1/rules", "", "", http.StatusUnauthorized},
		{"unknown key", "/v1/rules", APIKeyHeader, "gr-nope", http.StatusUnauthorized},
		{"disabled key", "/v1/rules", APIKeyHeader, "gr-old", http.StatusUnauthorized},
		{"wrong scheme", "/v1/rules", "Authorization", "Basic gr-live", http.StatusUnauthorized},
		{"health stays open", "/health/live", "", "", http.StatusOK},
		{"version stays open", "/version", "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusUnauthorized {
				return
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid error JSON: %v", err)
			}
			if resp.Error.Code != "unauthorized" {
				t.Errorf("error code = %q, want %q", resp.Error.Code, "unauthorized")
			}
		})
	}
}

func TestAPIKeyAuth_ClientInContext(t *testing.T) {
	keys := []config.APIKeyConfig{{Key: "gr-live", Client: "editor"}}

	var got string
	h := APIKeyMiddleware(keys, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClientFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate/quick", bytes.NewReader(nil))
	req.Header.Set("Authorization", "Bearer gr-live")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "editor" {
		t.Errorf("ClientFromContext() = %q, want %q", got, "editor")
	}
}

func TestAPIKeyAuth_NoKeysConfigured(t *testing.T) {
	called := false
	h := APIKeyMiddleware(nil, quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/rules", nil))

	if !called {
		t.Error("request without keys configured did not reach the handler")
	}
}
