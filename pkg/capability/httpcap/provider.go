package httpcap

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"retailmedia-hq/guardrail/pkg/capability"
)

// Provider calls the configured HTTP services.
type Provider struct {
	c *client
}

// New creates a provider. At least one endpoint must be set.
func New(cfg Config) (*Provider, error) {
	def := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = def.MaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost <= 0 {
		cfg.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout <= 0 {
		cfg.IdleConnTimeout = def.IdleConnTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.VisionEndpoint = strings.TrimRight(strings.TrimSpace(cfg.VisionEndpoint), "/")
	cfg.EntailmentEndpoint = strings.TrimSpace(cfg.EntailmentEndpoint)
	if cfg.VisionEndpoint == "" && cfg.EntailmentEndpoint == "" {
		return nil, errors.New("httpcap: no endpoint configured")
	}
	return &Provider{c: newClient(cfg)}, nil
}

// Name implements capability.Provider.
func (p *Provider) Name() string { return p.c.cfg.Name }

// IsHealthy reports the current health status.
func (p *Provider) IsHealthy() bool { return p.c.snapshot().IsHealthy }

// Health returns detailed health information.
func (p *Provider) Health() Health { return p.c.snapshot() }

// Close stops the health checker and releases idle connections.
func (p *Provider) Close() error {
	p.c.stopOnce.Do(func() { close(p.c.stopHealthCheck) })
	if p.c.healthCheckStarted {
		select {
		case <-p.c.healthCheckStopped:
		case <-time.After(5 * time.Second):
			p.c.logger.Warn("health checker did not stop in time", "provider", p.c.cfg.Name)
		}
	}
	p.c.http.CloseIdleConnections()
	return nil
}

type imageRequest struct {
	Image    string `json:"image"`
	MIMEType string `json:"mimeType"`
	Kind     string `json:"kind,omitempty"`
}

func newImageRequest(img capability.Image) imageRequest {
	return imageRequest{
		Image:    base64.StdEncoding.EncodeToString(img.Data),
		MIMEType: capability.PickMIME(img.MIMEType, img.Data),
	}
}

// DetectPeople implements capability.Capabilities.
func (p *Provider) DetectPeople(ctx context.Context, img capability.Image) (capability.PeopleResult, error) {
	var out capability.PeopleResult
	err := p.vision(ctx, capability.OpDetectPeople, "/people", newImageRequest(img), &out)
	return out, err
}

// VerifyLockup implements capability.Capabilities.
func (p *Provider) VerifyLockup(ctx context.Context, img capability.Image, kind capability.LockupKind) (capability.LockupResult, error) {
	req := newImageRequest(img)
	req.Kind = string(kind)

	var out struct {
		Valid  *bool    `json:"valid"`
		Issues []string `json:"issues"`
	}
	if err := p.vision(ctx, capability.OpVerifyLockup, "/lockup", req, &out); err != nil {
		return capability.LockupResult{}, err
	}
	if out.Valid == nil {
		return capability.LockupResult{}, &capability.ParseError{
			Provider: p.Name(),
			Cause:    errors.New(`missing "valid" field`),
		}
	}
	return capability.LockupResult{Valid: *out.Valid, Issues: out.Issues}, nil
}

// AnalyzePackshots implements capability.Capabilities.
func (p *Provider) AnalyzePackshots(ctx context.Context, img capability.Image) (capability.PackshotResult, error) {
	var out capability.PackshotResult
	err := p.vision(ctx, capability.OpAnalyzePackshots, "/packshots", newImageRequest(img), &out)
	return out, err
}

// CheckEntailment implements capability.Capabilities.
func (p *Provider) CheckEntailment(ctx context.Context, premise, hypothesis string) (capability.EntailmentResult, error) {
	if p.c.cfg.EntailmentEndpoint == "" {
		return capability.EntailmentResult{}, capability.ErrUnsupported
	}
	body := map[string]string{"premise": premise, "hypothesis": hypothesis}
	raw, err := p.c.doJSON(ctx, capability.OpCheckEntailment, p.c.cfg.EntailmentEndpoint, body)
	if err != nil {
		return capability.EntailmentResult{}, err
	}
	res, err := parseEntailment(raw)
	if err != nil {
		return capability.EntailmentResult{}, &capability.ParseError{Provider: p.Name(), RawResponse: string(raw), Cause: err}
	}
	return res, nil
}

func (p *Provider) vision(ctx context.Context, op, path string, req imageRequest, out any) error {
	if p.c.cfg.VisionEndpoint == "" {
		return capability.ErrUnsupported
	}
	raw, err := p.c.doJSON(ctx, op, p.c.cfg.VisionEndpoint+path, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &capability.ParseError{
			Provider:    p.Name(),
			RawResponse: string(raw),
			Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}
	return nil
}

type classifierLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// parseEntailment accepts the direct form or a classifier label list.
func parseEntailment(raw []byte) (capability.EntailmentResult, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return capability.EntailmentResult{}, errors.New("empty response")
	}

	if raw[0] == '{' {
		var direct struct {
			Entails    *bool   `json:"entails"`
			Confidence float64 `json:"confidence"`
		}
		if err := json.Unmarshal(raw, &direct); err != nil {
			return capability.EntailmentResult{}, err
		}
		if direct.Entails == nil {
			return capability.EntailmentResult{}, errors.New(`missing "entails" field`)
		}
		return capability.EntailmentResult{Entails: *direct.Entails, Confidence: direct.Confidence}, nil
	}

	var labels []classifierLabel
	if err := json.Unmarshal(raw, &labels); err != nil {
		var nested [][]classifierLabel
		if nerr := json.Unmarshal(raw, &nested); nerr != nil || len(nested) == 0 {
			return capability.EntailmentResult{}, err
		}
		labels = nested[0]
	}
	if len(labels) == 0 {
		return capability.EntailmentResult{}, errors.New("empty label list")
	}

	best := labels[0]
	var entailment float64
	for _, l := range labels {
		if l.Score > best.Score {
			best = l
		}
		if strings.EqualFold(l.Label, "entailment") {
			entailment = l.Score
		}
	}
	return capability.EntailmentResult{
		Entails:    strings.EqualFold(best.Label, "entailment"),
		Confidence: entailment,
	}, nil
}
