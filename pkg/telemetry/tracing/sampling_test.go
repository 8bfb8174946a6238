package tracing

import (
	"strings"
	"testing"
)

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
		desc     string
	}{
		{SamplerAlways, 0, false, "AlwaysOnSampler"},
		{SamplerNever, 0, false, "AlwaysOffSampler"},
		{SamplerRatio, 0.25, false, "TraceIDRatioBased{0.25}"},
		{"", 1, false, "AlwaysOnSampler"},
		{SamplerRatio, 1.5, true, ""},
		{SamplerRatio, -0.1, true, ""},
		{"adaptive", 0.5, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			s, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler(%q, %v) error = %v, wantErr %v", tt.strategy, tt.ratio, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			desc := s.Description()
			if !strings.HasPrefix(desc, "ParentBased{") {
				t.Errorf("Description() = %q, want ParentBased wrapper", desc)
			}
			if !strings.Contains(desc, tt.desc) {
				t.Errorf("Description() = %q, want root %q", desc, tt.desc)
			}
		})
	}
}
