package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"retailmedia-hq/guardrail/pkg/creative"
	"retailmedia-hq/guardrail/pkg/engine"
	"retailmedia-hq/guardrail/pkg/rules"
	"retailmedia-hq/guardrail/pkg/telemetry/logging"
)

// handleEvaluate serves POST /v1/evaluate/{quick|full}. The body is a
// creative snapshot; the response is always a verdict once the body parses.
// Invalid snapshots produce an ENGINE_ERROR verdict rather than an HTTP error.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	mode := engine.Mode(r.PathValue("mode"))
	if !mode.IsValid() {
		writeError(w, http.StatusNotFound, "unknown_mode", "evaluation mode must be quick or full")
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	snap, err := creative.Load(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "snapshot_too_large", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_snapshot", err.Error())
		return
	}

	ctx := r.Context()
	if snap.Context.FormatID != "" {
		ctx = logging.WithFormatID(ctx, snap.Context.FormatID)
	}

	v := s.engine.Load().Evaluate(ctx, snap, mode)
	s.last.Store(v.Clone())

	attrs := []any{"mode", string(mode), "can_export", v.CanExport, "score", v.Score}
	if client, ok := ClientFromContext(ctx); ok {
		attrs = append(attrs, "client", client)
	}
	logging.FromContext(ctx, s.logger).Debug("evaluation served", attrs...)

	w.Header().Set("X-Guardrail-Can-Export", boolString(v.CanExport))
	writeJSON(w, http.StatusOK, v)
}

// handleLastVerdict serves GET /v1/verdicts/last.
func (s *Server) handleLastVerdict(w http.ResponseWriter, r *http.Request) {
	v := s.LastVerdict()
	if v == nil {
		writeError(w, http.StatusNotFound, "no_verdict", "no evaluation has completed yet")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleRules serves GET /v1/rules as a schema document. ?format=yaml selects
// YAML.
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	catalog := s.Catalog()
	if catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "no_catalog", "no rule catalog loaded")
		return
	}

	if r.URL.Query().Get("format") == "yaml" {
		data, err := rules.MarshalYAML(catalog)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	writeJSON(w, http.StatusOK, catalog.Document())
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
