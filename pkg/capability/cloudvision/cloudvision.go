// Package cloudvision implements people detection on Google Cloud Vision.
// Only DetectPeople is offered; the other operations answer
// capability.ErrUnsupported so a Chain moves on to the next provider.
package cloudvision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"retailmedia-hq/guardrail/pkg/capability"
)

const providerName = "cloudvision"

// personLabels are object localization labels counted as people.
var personLabels = map[string]bool{
	"person":     true,
	"man":        true,
	"woman":      true,
	"boy":        true,
	"girl":       true,
	"baby":       true,
	"human face": true,
}

type annotator interface {
	annotate(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
}

// Config configures the provider.
type Config struct {
	// MaxResults caps the annotations requested per feature. Zero means 20.
	MaxResults int32

	// ClientOptions are passed to the Vision client (credentials, endpoint).
	ClientOptions []option.ClientOption

	Logger *slog.Logger
}

// Provider detects people with Cloud Vision.
type Provider struct {
	client     annotator
	closer     func() error
	maxResults int32
	logger     *slog.Logger
}

// New creates a provider backed by an ImageAnnotatorClient.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	cl, err := vision.NewImageAnnotatorClient(ctx, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("cloudvision: create client: %w", err)
	}
	p := newProvider(&clientAnnotator{client: cl}, cfg)
	p.closer = cl.Close
	return p, nil
}

func newProvider(a annotator, cfg Config) *Provider {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := cfg.MaxResults
	if limit <= 0 {
		limit = 20
	}
	return &Provider{client: a, maxResults: limit, logger: logger}
}

// Name implements capability.Provider.
func (p *Provider) Name() string { return providerName }

// Close releases the client.
func (p *Provider) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// DetectPeople implements capability.Capabilities. Faces and localized person
// objects both count; the highest detection score becomes the confidence.
func (p *Provider) DetectPeople(ctx context.Context, img capability.Image) (capability.PeopleResult, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: img.Data},
			Features: []*visionpb.Feature{
				{Type: visionpb.Feature_OBJECT_LOCALIZATION, MaxResults: p.maxResults},
				{Type: visionpb.Feature_FACE_DETECTION, MaxResults: p.maxResults},
			},
		}},
	}

	resp, err := p.client.annotate(ctx, req)
	if err != nil {
		return capability.PeopleResult{}, &capability.ProviderError{
			Provider:  providerName,
			Operation: capability.OpDetectPeople,
			Message:   "batch annotate failed",
			Cause:     err,
		}
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return capability.PeopleResult{}, &capability.ParseError{
			Provider: providerName,
			Cause:    fmt.Errorf("empty annotate response"),
		}
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return capability.PeopleResult{}, &capability.ProviderError{
			Provider:  providerName,
			Operation: capability.OpDetectPeople,
			Message:   r0.Error.Message,
		}
	}

	objects := 0
	var best float32
	for _, o := range r0.LocalizedObjectAnnotations {
		if o == nil || !personLabels[strings.ToLower(o.Name)] {
			continue
		}
		objects++
		if o.Score > best {
			best = o.Score
		}
	}
	faces := 0
	for _, f := range r0.FaceAnnotations {
		if f == nil {
			continue
		}
		faces++
		if f.DetectionConfidence > best {
			best = f.DetectionConfidence
		}
	}

	count := max(objects, faces)
	p.logger.Debug("cloud vision people detection",
		"objects", objects,
		"faces", faces,
		"confidence", best,
	)
	return capability.PeopleResult{
		Detected:   count > 0,
		Count:      count,
		Confidence: float64(best),
	}, nil
}

// VerifyLockup is not offered by Cloud Vision.
func (p *Provider) VerifyLockup(context.Context, capability.Image, capability.LockupKind) (capability.LockupResult, error) {
	return capability.LockupResult{}, capability.ErrUnsupported
}

// AnalyzePackshots is not offered by Cloud Vision.
func (p *Provider) AnalyzePackshots(context.Context, capability.Image) (capability.PackshotResult, error) {
	return capability.PackshotResult{}, capability.ErrUnsupported
}

// CheckEntailment is not offered by Cloud Vision.
func (p *Provider) CheckEntailment(context.Context, string, string) (capability.EntailmentResult, error) {
	return capability.EntailmentResult{}, capability.ErrUnsupported
}

type clientAnnotator struct {
	client *vision.ImageAnnotatorClient
}

func (c *clientAnnotator) annotate(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
	return c.client.BatchAnnotateImages(ctx, req)
}
