// Package gemini implements capability.Provider on Google's Gemini multimodal
// models. Every operation asks for a strict JSON answer; answers that cannot be
// decoded are reported as capability.ParseError.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"retailmedia-hq/guardrail/pkg/capability"
)

const (
	// DefaultModel is used when Config.Model is empty.
	DefaultModel = "gemini-1.5-flash"

	providerName = "gemini"
	maxAttempts  = 3
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("gemini: api key is empty")

// Config configures the provider.
type Config struct {
	APIKey string
	Model  string
	Logger *slog.Logger
}

// generator produces the raw text of one model answer.
type generator interface {
	generate(ctx context.Context, system string, parts ...genai.Part) (string, error)
}

// Provider talks to Gemini.
type Provider struct {
	gen    generator
	closer func() error
	logger *slog.Logger
}

// New creates a provider with its own client. Close releases it.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	p := newProvider(&clientGenerator{client: cl, model: model}, cfg.Logger)
	p.closer = cl.Close
	return p, nil
}

func newProvider(gen generator, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{gen: gen, logger: logger}
}

// Name implements capability.Provider.
func (p *Provider) Name() string { return providerName }

// Close releases the underlying client.
func (p *Provider) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// DetectPeople implements capability.Capabilities.
func (p *Provider) DetectPeople(ctx context.Context, img capability.Image) (capability.PeopleResult, error) {
	var out struct {
		Detected   bool    `json:"detected"`
		Count      int     `json:"count"`
		Confidence float64 `json:"confidence"`
	}
	if err := p.ask(ctx, capability.OpDetectPeople, peoplePrompt, &out, imagePart(img)); err != nil {
		return capability.PeopleResult{}, err
	}
	return capability.PeopleResult{
		Detected:   out.Detected,
		Count:      out.Count,
		Confidence: clamp01(out.Confidence),
	}, nil
}

// VerifyLockup implements capability.Capabilities.
func (p *Provider) VerifyLockup(ctx context.Context, img capability.Image, kind capability.LockupKind) (capability.LockupResult, error) {
	if kind != capability.LockupDrinkaware {
		return capability.LockupResult{}, capability.ErrUnsupported
	}
	var out struct {
		Valid  *bool    `json:"valid"`
		Issues []string `json:"issues"`
	}
	if err := p.ask(ctx, capability.OpVerifyLockup, lockupPrompt, &out, imagePart(img)); err != nil {
		return capability.LockupResult{}, err
	}
	if out.Valid == nil {
		return capability.LockupResult{}, &capability.ParseError{
			Provider: providerName,
			Cause:    errors.New(`missing "valid" field`),
		}
	}
	return capability.LockupResult{Valid: *out.Valid, Issues: out.Issues}, nil
}

// AnalyzePackshots implements capability.Capabilities.
func (p *Provider) AnalyzePackshots(ctx context.Context, img capability.Image) (capability.PackshotResult, error) {
	var out struct {
		Count   int      `json:"count"`
		HasLead bool     `json:"hasLead"`
		Issues  []string `json:"issues"`
	}
	if err := p.ask(ctx, capability.OpAnalyzePackshots, packshotPrompt, &out, imagePart(img)); err != nil {
		return capability.PackshotResult{}, err
	}
	return capability.PackshotResult{Count: out.Count, HasLead: out.HasLead, Issues: out.Issues}, nil
}

// CheckEntailment implements capability.Capabilities.
func (p *Provider) CheckEntailment(ctx context.Context, premise, hypothesis string) (capability.EntailmentResult, error) {
	var out struct {
		Entails    bool    `json:"entails"`
		Confidence float64 `json:"confidence"`
	}
	user := fmt.Sprintf("PREMISE:\n%s\n\nHYPOTHESIS:\n%s", premise, hypothesis)
	if err := p.ask(ctx, capability.OpCheckEntailment, entailmentPrompt, &out, genai.Text(user)); err != nil {
		return capability.EntailmentResult{}, err
	}
	return capability.EntailmentResult{Entails: out.Entails, Confidence: clamp01(out.Confidence)}, nil
}

// ask sends one request with retries and decodes the JSON answer into out.
func (p *Provider) ask(ctx context.Context, op, system string, out any, parts ...genai.Part) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := p.gen.generate(ctx, system, parts...)
		if err == nil {
			return decode(raw, out)
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		p.logger.Debug("gemini call failed, retrying", "operation", op, "attempt", attempt, "error", err)
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
		}
	}
	return &capability.ProviderError{
		Provider:  providerName,
		Operation: op,
		Message:   "generate content failed",
		Cause:     lastErr,
	}
}

func decode(raw string, out any) error {
	text := stripCodeFences(raw)
	if text == "" {
		return &capability.ParseError{Provider: providerName, RawResponse: raw, Cause: errors.New("empty response")}
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &capability.ParseError{Provider: providerName, RawResponse: raw, Cause: err}
	}
	return nil
}

func imagePart(img capability.Image) genai.Part {
	return &genai.Blob{MIMEType: capability.PickMIME(img.MIMEType, img.Data), Data: img.Data}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

type clientGenerator struct {
	client *genai.Client
	model  string
}

func (g *clientGenerator) generate(ctx context.Context, system string, parts ...genai.Part) (string, error) {
	m := g.client.GenerativeModel(g.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	return firstText(resp), nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
