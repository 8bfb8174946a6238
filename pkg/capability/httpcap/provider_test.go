package httpcap

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"retailmedia-hq/guardrail/pkg/capability"
)

func testConfig(vision, entailment string) Config {
	return Config{
		Name:               "test-http",
		VisionEndpoint:     vision,
		EntailmentEndpoint: entailment,
		Timeout:            2 * time.Second,
		MaxRetries:         2,
		Backoff:            time.Millisecond,
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without endpoints")
	}
}

func TestProvider_VisionOperations(t *testing.T) {
	var gotKind string
	var gotImage []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req imageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotImage, _ = base64.StdEncoding.DecodeString(req.Image)
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/people":
			_, _ = w.Write([]byte(`{"detected": true, "count": 2, "confidence": 0.88}`))
		case "/lockup":
			gotKind = req.Kind
			_, _ = w.Write([]byte(`{"valid": false, "issues": ["lockup too small"]}`))
		case "/packshots":
			_, _ = w.Write([]byte(`{"count": 2, "hasLead": true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := testConfig(server.URL+"/", "")
	cfg.APIKey = "secret"
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Close()

	ctx := context.Background()
	img := capability.Image{Data: []byte("pixels"), MIMEType: "image/png"}

	people, err := p.DetectPeople(ctx, img)
	if err != nil {
		t.Fatalf("DetectPeople() error = %v", err)
	}
	if want := (capability.PeopleResult{Detected: true, Count: 2, Confidence: 0.88}); people != want {
		t.Errorf("DetectPeople() = %+v, want %+v", people, want)
	}
	if string(gotImage) != "pixels" {
		t.Errorf("image payload = %q, want %q", gotImage, "pixels")
	}

	lockup, err := p.VerifyLockup(ctx, img, capability.LockupDrinkaware)
	if err != nil {
		t.Fatalf("VerifyLockup() error = %v", err)
	}
	if lockup.Valid || len(lockup.Issues) != 1 {
		t.Errorf("VerifyLockup() = %+v, want invalid with one issue", lockup)
	}
	if gotKind != "drinkaware" {
		t.Errorf("lockup kind = %q, want drinkaware", gotKind)
	}

	packs, err := p.AnalyzePackshots(ctx, img)
	if err != nil {
		t.Fatalf("AnalyzePackshots() error = %v", err)
	}
	if packs.Count != 2 || !packs.HasLead {
		t.Errorf("AnalyzePackshots() = %+v, want count 2 with lead", packs)
	}

	if _, err := p.CheckEntailment(ctx, "a", "b"); !errors.Is(err, capability.ErrUnsupported) {
		t.Errorf("CheckEntailment() error = %v, want ErrUnsupported", err)
	}
}

func TestProvider_RetryOn5xx(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"entails": true, "confidence": 0.91}`))
	}))
	defer server.Close()

	p, err := New(testConfig("", server.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := p.CheckEntailment(context.Background(), "Win a holiday", "This text describes a competition.")
	if err != nil {
		t.Fatalf("CheckEntailment() error = %v", err)
	}
	if !got.Entails || got.Confidence != 0.91 {
		t.Errorf("CheckEntailment() = %+v, want entails with 0.91", got)
	}
	if n := atomic.LoadInt32(&attempts); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
	if !p.IsHealthy() {
		t.Error("expected provider to be healthy after successful retry")
	}
}

func TestProvider_NoRetryOn4xx(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{
			name:   "400 bad request",
			status: http.StatusBadRequest,
			check: func(err error) bool {
				var pe *capability.ProviderError
				return errors.As(err, &pe) && pe.StatusCode == http.StatusBadRequest
			},
		},
		{
			name:   "429 rate limited",
			status: http.StatusTooManyRequests,
			check: func(err error) bool {
				var rl *RateLimitError
				return errors.As(err, &rl) && rl.RetryAfter == 7*time.Second
			},
		},
		{
			name:   "501 not implemented",
			status: http.StatusNotImplemented,
			check: func(err error) bool {
				return errors.Is(err, capability.ErrUnsupported)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attempts, 1)
				w.Header().Set("Retry-After", "7")
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			p, err := New(testConfig(server.URL, ""))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			_, err = p.DetectPeople(context.Background(), capability.Image{Data: []byte("x")})
			if !tt.check(err) {
				t.Errorf("DetectPeople() error = %v, unexpected type", err)
			}
			if n := atomic.LoadInt32(&attempts); n != 1 {
				t.Errorf("attempts = %d, want 1", n)
			}
		})
	}
}

func TestProvider_UnhealthyAfterFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig(server.URL, "")
	cfg.MaxRetries = 0
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := p.DetectPeople(context.Background(), capability.Image{}); err == nil {
			t.Fatal("expected error")
		}
	}
	h := p.Health()
	if h.IsHealthy {
		t.Error("expected provider to be unhealthy after 3 failures")
	}
	if h.ConsecutiveFailures != 3 {
		t.Errorf("ConsecutiveFailures = %d, want 3", h.ConsecutiveFailures)
	}
	if h.FailedRequests != 3 {
		t.Errorf("FailedRequests = %d, want 3", h.FailedRequests)
	}
}

func TestProvider_UnparseableLockup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`looks fine`))
	}))
	defer server.Close()

	p, _ := New(testConfig(server.URL, ""))
	_, err := p.VerifyLockup(context.Background(), capability.Image{}, capability.LockupDrinkaware)
	if !errors.Is(err, capability.ErrUnparseable) {
		t.Errorf("VerifyLockup() error = %v, want ErrUnparseable", err)
	}
}

func TestParseEntailment(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    capability.EntailmentResult
		wantErr bool
	}{
		{"direct", `{"entails": false, "confidence": 0.2}`, capability.EntailmentResult{Entails: false, Confidence: 0.2}, false},
		{"labels", `[{"label":"ENTAILMENT","score":0.8},{"label":"NEUTRAL","score":0.15},{"label":"CONTRADICTION","score":0.05}]`, capability.EntailmentResult{Entails: true, Confidence: 0.8}, false},
		{"nested labels", `[[{"label":"neutral","score":0.6},{"label":"entailment","score":0.3}]]`, capability.EntailmentResult{Entails: false, Confidence: 0.3}, false},
		{"missing field", `{"confidence": 0.9}`, capability.EntailmentResult{}, true},
		{"empty list", `[]`, capability.EntailmentResult{}, true},
		{"garbage", `yes`, capability.EntailmentResult{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEntailment([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseEntailment() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseEntailment() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	base := 30 * time.Second
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, base},
		{1, 2 * base},
		{2, 4 * base},
		{3, 8 * base},
		{4, 5 * time.Minute},
		{10, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := calculateBackoff(tt.failures, base); got != tt.want {
			t.Errorf("calculateBackoff(%d) = %v, want %v", tt.failures, got, tt.want)
		}
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig(server.URL, "")
	cfg.HealthURL = server.URL + "/health"
	cfg.HealthCheckInterval = 10 * time.Millisecond
	p, _ := New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.StartHealthChecker(ctx)

	if err := p.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if h := p.Health(); h.TotalRequests < 1 {
		t.Errorf("TotalRequests = %d, want >= 1", h.TotalRequests)
	}
}
