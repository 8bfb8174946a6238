package cloudvision

import (
	"context"
	"errors"
	"testing"

	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailmedia-hq/guardrail/pkg/capability"
)

type fakeAnnotator struct {
	resp *visionpb.BatchAnnotateImagesResponse
	err  error
	req  *visionpb.BatchAnnotateImagesRequest
}

func (f *fakeAnnotator) annotate(_ context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
	f.req = req
	return f.resp, f.err
}

func single(r *visionpb.AnnotateImageResponse) *visionpb.BatchAnnotateImagesResponse {
	return &visionpb.BatchAnnotateImagesResponse{Responses: []*visionpb.AnnotateImageResponse{r}}
}

func TestDetectPeople(t *testing.T) {
	tests := []struct {
		name string
		resp *visionpb.AnnotateImageResponse
		want capability.PeopleResult
	}{
		{
			name: "no people",
			resp: &visionpb.AnnotateImageResponse{
				LocalizedObjectAnnotations: []*visionpb.LocalizedObjectAnnotation{{Name: "Bottle", Score: 0.9}},
			},
			want: capability.PeopleResult{},
		},
		{
			name: "objects",
			resp: &visionpb.AnnotateImageResponse{
				LocalizedObjectAnnotations: []*visionpb.LocalizedObjectAnnotation{
					{Name: "Person", Score: 0.81},
					{Name: "Woman", Score: 0.7},
					{Name: "Shelf", Score: 0.95},
				},
			},
			want: capability.PeopleResult{Detected: true, Count: 2, Confidence: float64(float32(0.81))},
		},
		{
			name: "faces outnumber objects",
			resp: &visionpb.AnnotateImageResponse{
				LocalizedObjectAnnotations: []*visionpb.LocalizedObjectAnnotation{{Name: "Person", Score: 0.5}},
				FaceAnnotations: []*visionpb.FaceAnnotation{
					{DetectionConfidence: 0.75},
					{DetectionConfidence: 0.25},
					{DetectionConfidence: 0.5},
				},
			},
			want: capability.PeopleResult{Detected: true, Count: 3, Confidence: 0.75},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAnnotator{resp: single(tt.resp)}
			p := newProvider(fake, Config{})

			got, err := p.DetectPeople(context.Background(), capability.Image{Data: []byte("img")})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			require.Len(t, fake.req.Requests, 1)
			assert.Len(t, fake.req.Requests[0].Features, 2)
			assert.Equal(t, int32(20), fake.req.Requests[0].Features[0].MaxResults)
		})
	}
}

func TestDetectPeopleErrors(t *testing.T) {
	boom := errors.New("rpc error")
	p := newProvider(&fakeAnnotator{err: boom}, Config{})
	_, err := p.DetectPeople(context.Background(), capability.Image{})
	var pe *capability.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, boom)

	p = newProvider(&fakeAnnotator{resp: &visionpb.BatchAnnotateImagesResponse{}}, Config{})
	_, err = p.DetectPeople(context.Background(), capability.Image{})
	assert.ErrorIs(t, err, capability.ErrUnparseable)
}

func TestUnsupportedOperations(t *testing.T) {
	p := newProvider(&fakeAnnotator{}, Config{})
	ctx := context.Background()

	_, err := p.VerifyLockup(ctx, capability.Image{}, capability.LockupDrinkaware)
	assert.ErrorIs(t, err, capability.ErrUnsupported)
	_, err = p.AnalyzePackshots(ctx, capability.Image{})
	assert.ErrorIs(t, err, capability.ErrUnsupported)
	_, err = p.CheckEntailment(ctx, "a", "b")
	assert.ErrorIs(t, err, capability.ErrUnsupported)
}
